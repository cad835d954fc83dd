package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/yockii/slide_stream/pkg/config"
)

var (
	rdb     *redis.Client
	rdbOnce sync.Once
)

// RedisEnabled 是否配置了 redis
func RedisEnabled() bool {
	return config.GetBool("cache.redis.enabled")
}

// GetRedis 按配置懒加载共享客户端，未启用时返回 nil
func GetRedis() *redis.Client {
	if !RedisEnabled() {
		return nil
	}
	rdbOnce.Do(func() {
		poolSize := config.GetInt("cache.redis.pool_size")
		rdb = redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d",
				config.GetString("cache.redis.host"),
				config.GetInt("cache.redis.port")),
			Password:     config.GetString("cache.redis.password"),
			DB:           config.GetInt("cache.redis.db"),
			PoolSize:     poolSize,
			MinIdleConns: poolSize / 2,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
	})
	return rdb
}

// CloseRedis 关闭共享客户端
func CloseRedis() error {
	if rdb == nil {
		return nil
	}
	return rdb.Close()
}
