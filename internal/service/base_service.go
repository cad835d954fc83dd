package service

import (
	"context"
	"errors"

	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/database"
	"github.com/yockii/slide_stream/pkg/logger"
	"gorm.io/gorm"
)

// BaseServiceConfig 具体服务提供的钩子，未提供的使用默认实现
type BaseServiceConfig[T model.Model] struct {
	NewModel        func() T
	CheckDuplicate  func(record T) (bool, error)
	DeleteCheck     func(record T) error
	BuildCondition  func(query *gorm.DB, condition T) *gorm.DB
	UpdateHook      func(ctx context.Context, record T)
	DeleteHook      func(ctx context.Context, record T)
	ListOrder       string
	ListOmitColumns []string
}

type BaseServiceImpl[T model.Model] struct {
	db  *gorm.DB
	cfg BaseServiceConfig[T]
}

func NewBaseService[T model.Model](cfg BaseServiceConfig[T]) *BaseServiceImpl[T] {
	if cfg.CheckDuplicate == nil {
		cfg.CheckDuplicate = func(T) (bool, error) { return false, nil }
	}
	if cfg.DeleteCheck == nil {
		cfg.DeleteCheck = func(T) error { return nil }
	}
	if cfg.BuildCondition == nil {
		cfg.BuildCondition = func(query *gorm.DB, _ T) *gorm.DB { return query }
	}
	if cfg.UpdateHook == nil {
		cfg.UpdateHook = func(context.Context, T) {}
	}
	if cfg.DeleteHook == nil {
		cfg.DeleteHook = func(context.Context, T) {}
	}
	if cfg.ListOrder == "" {
		cfg.ListOrder = "created_at DESC"
	}
	return &BaseServiceImpl[T]{
		db:  database.GetDB(),
		cfg: cfg,
	}
}

// Create 创建记录
func (s *BaseServiceImpl[T]) Create(ctx context.Context, record T) error {
	// 检查是否重复
	duplicate, err := s.cfg.CheckDuplicate(record)
	if err != nil {
		return err
	}
	if duplicate {
		return constant.ErrRecordDuplicate
	}

	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		logger.Error("创建记录失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}
	return nil
}

// Update 更新记录，零值字段不会被更新
func (s *BaseServiceImpl[T]) Update(ctx context.Context, record T) error {
	id := record.GetID()
	if id == 0 {
		return constant.ErrRecordIDEmpty
	}
	existing := s.cfg.NewModel()
	if err := s.db.WithContext(ctx).First(existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return constant.ErrRecordNotFound
		}
		logger.Error("查询记录失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}

	// 检查是否重复
	duplicate, err := s.cfg.CheckDuplicate(record)
	if err != nil {
		return err
	}
	if duplicate {
		return constant.ErrRecordDuplicate
	}

	// 更新记录
	if err := s.db.WithContext(ctx).Model(record).Updates(record).Error; err != nil {
		logger.Error("更新记录失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}

	s.cfg.UpdateHook(ctx, existing)
	return nil
}

// Delete 删除记录
func (s *BaseServiceImpl[T]) Delete(ctx context.Context, id uint64) error {
	record := s.cfg.NewModel()
	if err := s.db.WithContext(ctx).First(record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return constant.ErrRecordNotFound
		}
		logger.Error("查询记录失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}

	// 检查是否可以删除
	if err := s.cfg.DeleteCheck(record); err != nil {
		return err
	}

	// 删除记录
	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		logger.Error("删除记录失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}
	s.cfg.DeleteHook(ctx, record)
	return nil
}

// Get 查询记录
func (s *BaseServiceImpl[T]) Get(ctx context.Context, id uint64) (T, error) {
	record := s.cfg.NewModel()
	if err := s.db.WithContext(ctx).First(record, "id = ?", id).Error; err != nil {
		var zero T
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return zero, constant.ErrRecordNotFound
		}
		logger.Error("查询记录失败", logger.F("error", err))
		return zero, constant.ErrDatabaseError
	}
	return record, nil
}

// List 查询记录列表
func (s *BaseServiceImpl[T]) List(ctx context.Context, condition T, offset, limit int) ([]T, int64, error) {
	var records []T
	var total int64

	query := s.db.WithContext(ctx).Model(s.cfg.NewModel())
	if omits := s.cfg.ListOmitColumns; len(omits) > 0 {
		query = query.Omit(omits...)
	}

	// 构建查询条件
	query = s.cfg.BuildCondition(query, condition)

	// 查询记录总数
	if err := query.Count(&total).Error; err != nil {
		logger.Error("查询记录总数失败", logger.F("error", err))
		return records, 0, constant.ErrDatabaseError
	}

	if total > 0 && limit > 0 {
		// 查询记录列表
		if err := query.Offset(offset).Limit(limit).Order(s.cfg.ListOrder).Find(&records).Error; err != nil {
			logger.Error("查询记录失败", logger.F("error", err))
			return records, 0, constant.ErrDatabaseError
		}
	}

	return records, total, nil
}
