package appapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/yockii/slide_stream/internal/service"
)

var Handlers []Handler

type Handler interface {
	RegisterRoutes(router fiber.Router)
}

// PublicHandler 不经过 API Key 校验的路由，例如签名下载链接
type PublicHandler interface {
	RegisterPublicRoutes(router fiber.Router)
}

// fail 按错误类型返回对应的状态码
func fail(c *fiber.Ctx, err error) error {
	resp := service.Error(err)
	return c.Status(resp.Code).JSON(resp)
}

/*
对应用的接口，应用可以调用这些接口实现：
1、创建、查询、删除演示文稿
2、流式生成幻灯片（NDJSON 增量）
3、一次性解析完整的幻灯片标记
4、导出 PPTX 及签名下载链接
*/
