package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/logger"
)

// LocalsClientKey 上下文中保存的调用方标识
const LocalsClientKey = "client"

// NewAppMiddleware 校验 API key，未配置任何 key 时不做校验
func NewAppMiddleware(apiKeys []string) fiber.Handler {
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}
	if len(keys) == 0 {
		logger.Warn("未配置 security.api_keys，接口不做鉴权")
	}

	return func(c *fiber.Ctx) error {
		if len(keys) == 0 {
			return c.Next()
		}

		// 获取api_key, Authorization Bearer
		authorization := c.Get("Authorization")
		apiKey := strings.TrimPrefix(authorization, "Bearer ")
		if apiKey == "" {
			apiKey = c.Get("X-API-Key")
		}
		if apiKey == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(service.Error(constant.ErrUnauthorized))
		}

		matched := false
		for _, k := range keys {
			if subtle.ConstantTimeCompare(k, []byte(apiKey)) == 1 {
				matched = true
				break
			}
		}
		if !matched {
			return c.Status(fiber.StatusUnauthorized).JSON(service.Error(constant.ErrUnauthorized))
		}

		// 限流按 key 区分调用方
		c.Locals(LocalsClientKey, "key_"+clientTag(apiKey))
		return c.Next()
	}
}

func clientTag(apiKey string) string {
	if len(apiKey) > 8 {
		return apiKey[:8]
	}
	return apiKey
}
