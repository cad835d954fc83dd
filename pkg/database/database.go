package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/yockii/slide_stream/pkg/config"
)

var db *gorm.DB

// Init 初始化数据库连接
func Init() error {
	dbType := config.GetString("database.type")

	var dialector gorm.Dialector
	switch dbType {
	case "postgres":
		dialector = postgres.Open(config.GetDSN())
	case "mysql":
		dialector = mysql.Open(config.GetDSN())
	case "sqlite":
		path := config.GetDSN()
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("create database dir failed: %v", err)
			}
		}
		dialector = sqlite.Open(path)
	default:
		return fmt.Errorf("unsupported database type: %s", dbType)
	}

	if err := InitWithDialector(dialector, logger.Warn); err != nil {
		return err
	}

	// 获取底层SQL DB
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB failed: %v", err)
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(config.GetInt("database.max_idle_conns"))
	sqlDB.SetMaxOpenConns(config.GetInt("database.max_open_conns"))
	sqlDB.SetConnMaxLifetime(time.Duration(config.GetInt("database.conn_max_lifetime")) * time.Second)
	return nil
}

// InitWithDialector 使用指定的驱动建立连接，测试中用内存 sqlite
func InitWithDialector(dialector gorm.Dialector, level logger.LogLevel) error {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{
			TablePrefix: "t_", // 设置表名前缀
		},
		DisableForeignKeyConstraintWhenMigrating: true, // 禁用自动创建外键
	}

	conn, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return fmt.Errorf("connect to database failed: %v", err)
	}
	db = conn
	return nil
}

// GetDB 获取数据库连接
func GetDB() *gorm.DB {
	return db
}

// Close 关闭数据库连接
func Close() error {
	if db != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
