package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/logger"
	"gorm.io/gorm"
)

const identityPrefix = "identity:"

// NewIdentityStore 启用 redis 时使用 redis，否则落库
func NewIdentityStore() IdentityStore {
	if rdb := database.GetRedis(); rdb != nil {
		return NewRedisIdentityStore(rdb, config.GetSeconds("cache.redis.identity_expire"))
	}
	return NewDBIdentityStore(database.GetDB())
}

type redisIdentityStore struct {
	rdb    *redis.Client
	expire time.Duration
}

func NewRedisIdentityStore(rdb *redis.Client, expire time.Duration) IdentityStore {
	return &redisIdentityStore{rdb: rdb, expire: expire}
}

func identityKey(presentationID uint64) string {
	return fmt.Sprintf("%s%d", identityPrefix, presentationID)
}

func (s *redisIdentityStore) Load(ctx context.Context, presentationID uint64) (map[string]string, error) {
	entries, err := s.rdb.HGetAll(ctx, identityKey(presentationID)).Result()
	if err != nil {
		logger.Error("读取幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return nil, constant.ErrCacheError
	}
	return entries, nil
}

func (s *redisIdentityStore) Save(ctx context.Context, presentationID uint64, entries map[string]string) error {
	key := identityKey(presentationID)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(entries) == 0 {
			return nil
		}
		values := make(map[string]interface{}, len(entries))
		for fp, id := range entries {
			values[fp] = id
		}
		pipe.HSet(ctx, key, values)
		if s.expire > 0 {
			pipe.Expire(ctx, key, s.expire)
		}
		return nil
	})
	if err != nil {
		logger.Error("保存幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return constant.ErrCacheError
	}
	return nil
}

func (s *redisIdentityStore) Delete(ctx context.Context, presentationID uint64) error {
	if err := s.rdb.Del(ctx, identityKey(presentationID)).Err(); err != nil {
		logger.Error("删除幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return constant.ErrCacheError
	}
	return nil
}

type dbIdentityStore struct {
	db *gorm.DB
}

func NewDBIdentityStore(db *gorm.DB) IdentityStore {
	return &dbIdentityStore{db: db}
}

func (s *dbIdentityStore) Load(ctx context.Context, presentationID uint64) (map[string]string, error) {
	var rows []*model.SlideIdentity
	if err := s.db.WithContext(ctx).Where("presentation_id = ?", presentationID).Find(&rows).Error; err != nil {
		logger.Error("读取幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return nil, constant.ErrDatabaseError
	}
	entries := make(map[string]string, len(rows))
	for _, row := range rows {
		entries[row.Fingerprint] = row.SlideID
	}
	return entries, nil
}

func (s *dbIdentityStore) Save(ctx context.Context, presentationID uint64, entries map[string]string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("presentation_id = ?", presentationID).Delete(&model.SlideIdentity{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		rows := make([]*model.SlideIdentity, 0, len(entries))
		for fp, id := range entries {
			rows = append(rows, &model.SlideIdentity{
				PresentationID: presentationID,
				Fingerprint:    fp,
				SlideID:        id,
			})
		}
		return tx.CreateInBatches(rows, 100).Error
	})
	if err != nil {
		logger.Error("保存幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return constant.ErrDatabaseError
	}
	return nil
}

func (s *dbIdentityStore) Delete(ctx context.Context, presentationID uint64) error {
	if err := s.db.WithContext(ctx).Where("presentation_id = ?", presentationID).Delete(&model.SlideIdentity{}).Error; err != nil {
		logger.Error("删除幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
		return constant.ErrDatabaseError
	}
	return nil
}
