package main

import (
	"flag"
	"log"

	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/internal/server"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/util"
)

func main() {
	configFile := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// 初始化配置
	if err := config.Init(*configFile); err != nil {
		log.Fatalf("初始化配置失败: %v", err)
	}
	if err := config.Validate(); err != nil {
		log.Fatalf("配置校验失败: %v", err)
	}

	if err := util.InitNode(config.GetUint64("server.node_id")); err != nil {
		log.Fatalf("初始化ID生成器失败: %v", err)
	}

	// 初始化日志
	logger.Init()
	defer logger.Sync()

	// 连接数据库
	if err := database.Init(); err != nil {
		logger.Fatal("连接数据库失败", logger.F("error", err))
	}
	defer database.Close()
	defer database.CloseRedis()

	// 数据库迁移
	if err := model.AutoMigrate(database.GetDB()); err != nil {
		logger.Fatal("数据库迁移失败", logger.F("error", err))
	}

	// 创建服务器实例
	srv := server.New()

	// 启动服务器
	if err := srv.Start(); err != nil {
		log.Fatalf("服务停止: %v", err)
	}
}
