package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/logger"
)

// NewSysAuthMiddleware 运维接口使用单独的管理 key，skipPaths 中的路径不校验
func NewSysAuthMiddleware(adminKey string, skipPaths []string) fiber.Handler {
	skipPathMap := make(map[string]bool)
	for _, path := range skipPaths {
		skipPathMap[path] = true
	}

	return func(c *fiber.Ctx) error {
		// 检查是否跳过认证
		if skipPathMap[c.Path()] || adminKey == "" {
			return c.Next()
		}

		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(service.NewResponse(nil, constant.ErrUnauthorized))
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(adminKey)) != 1 {
			logger.Warn("invalid admin key", logger.F("ip", c.IP()), logger.F("path", c.Path()))
			return c.Status(fiber.StatusForbidden).JSON(service.NewResponse(nil, constant.ErrForbidden))
		}
		return c.Next()
	}
}
