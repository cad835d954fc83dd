package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	middlewareLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	appapi "github.com/yockii/slide_stream/internal/api_app"
	sysapi "github.com/yockii/slide_stream/internal/api_sys"
	"github.com/yockii/slide_stream/internal/llm"
	"github.com/yockii/slide_stream/internal/middleware"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/logger"
)

type Server struct {
	app *fiber.App
	// 后台任务随服务关闭退出
	ctx  context.Context
	stop context.CancelFunc

	// 各个service
	identityStore   service.IdentityStore
	presentationSrv service.PresentationService
	generationSrv   service.GenerationService
}

func New() *Server {
	ctx, stop := context.WithCancel(context.Background())
	return &Server{ctx: ctx, stop: stop}
}

func (s *Server) Start() error {
	s.app = s.build()

	// 启动服务器
	addr := config.GetServerAddress()
	logger.Info("服务监听地址", logger.F("address", addr))

	// 优雅关闭
	go s.gracefulShutdown()

	if err := s.app.Listen(addr); err != nil {
		logger.Error("服务停止", logger.F("error", err))
		return err
	}
	return nil
}

// build 创建 Fiber 实例并注册全部路由
func (s *Server) build() *fiber.App {
	s.app = fiber.New(fiber.Config{
		AppName:               config.GetString("server.app_name"),
		EnablePrintRoutes:     config.GetBool("server.print_routes"),
		DisableStartupMessage: true,
	})

	s.setupServices()

	// 配置中间件
	s.setupMiddleware()

	s.setupSystemRoutesV1()
	s.setupApplicationRoutesV1()
	return s.app
}

func (s *Server) gracefulShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("服务关闭中...")
	s.stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		logger.Error("服务关闭失败", logger.F("error", err))
	}

	logger.Info("服务已关闭")
}

// setupServices 配置服务层
func (s *Server) setupServices() {
	streamClient := llm.InitDefaultStreamClient(
		config.GetString("llm.base_url"),
		config.GetString("llm.api_key"),
		config.GetString("llm.model"),
		config.GetSeconds("llm.timeout"),
	).WithFraming(config.GetString("llm.framing"))

	s.identityStore = service.NewIdentityStore()
	s.presentationSrv = service.NewPresentationService(s.identityStore)
	s.generationSrv = service.NewGenerationService(s.presentationSrv, s.identityStore, streamClient)
}

// setupMiddleware 配置中间件
func (s *Server) setupMiddleware() {
	// 异常恢复
	s.app.Use(recover.New())

	// CORS
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: config.GetString("security.allowed_origins"),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))

	// 访问日志
	s.app.Use(middlewareLogger.New(middlewareLogger.Config{
		Format:     "[${ip}]-${time} ${status} ${latency} ${method} ${path} | ${error}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))
}

// setupSystemRoutesV1 运维接口，/health 不需要鉴权
func (s *Server) setupSystemRoutesV1() {
	sysapi.RegisterStatusHandler()

	apiGroup := s.app.Group("/sys_api/v1")
	sysAuthMiddleware := middleware.NewSysAuthMiddleware(config.GetString("security.admin_key"), nil)
	for _, handler := range sysapi.Handlers {
		handler.RegisterRoutes(apiGroup, sysAuthMiddleware)
	}

	// 健康检查
	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
}

// newLimiter 启用 redis 时多实例共享计数
func (s *Server) newLimiter() middleware.Limiter {
	maxRequests := config.GetInt("rate_limit.max_requests")
	period := config.GetSeconds("rate_limit.duration")
	if rdb := database.GetRedis(); rdb != nil {
		return middleware.NewRedisLimiter(rdb, "ratelimit:", maxRequests, period)
	}
	limiter := middleware.NewMemoryLimiter(maxRequests, period)
	if period > 0 {
		limiter.StartSweeper(s.ctx, period)
	}
	return limiter
}

// setupApplicationRoutesV1 应用接口，下载链接自带签名不经过 API Key 校验
func (s *Server) setupApplicationRoutesV1() {
	appapi.RegisterPresentationHandler(
		s.presentationSrv,
		s.generationSrv,
	)

	for _, handler := range appapi.Handlers {
		if public, ok := handler.(appapi.PublicHandler); ok {
			public.RegisterPublicRoutes(s.app)
		}
	}

	handlers := []fiber.Handler{middleware.NewAppMiddleware(config.GetStringSlice("security.api_keys"))}
	if config.GetBool("rate_limit.enabled") {
		handlers = append(handlers, middleware.RateLimit(s.newLimiter()))
	}
	appApiGroup := s.app.Group("/api/v1", handlers...)
	for _, handler := range appapi.Handlers {
		handler.RegisterRoutes(appApiGroup)
	}
}
