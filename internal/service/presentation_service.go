package service

import (
	"context"

	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/slideparser"
	"gorm.io/gorm"
)

type presentationService struct {
	*BaseServiceImpl[*model.Presentation]
	identities IdentityStore
}

func NewPresentationService(identities IdentityStore) *presentationService {
	srv := &presentationService{identities: identities}
	srv.BaseServiceImpl = NewBaseService[*model.Presentation](BaseServiceConfig[*model.Presentation]{
		NewModel:       srv.NewModel,
		BuildCondition: srv.BuildCondition,
		DeleteCheck:    srv.DeleteCheck,
		DeleteHook:     srv.DeleteHook,
		// 列表中不返回正文
		ListOmitColumns: []string{"content"},
		ListOrder:       "updated_at DESC",
	})
	return srv
}

func (s *presentationService) NewModel() *model.Presentation {
	return &model.Presentation{}
}

func (s *presentationService) BuildCondition(query *gorm.DB, condition *model.Presentation) *gorm.DB {
	if condition == nil {
		return query
	}
	if condition.Title != "" {
		query = query.Where("title LIKE ?", "%"+condition.Title+"%")
	}
	if condition.Status != "" {
		query = query.Where("status = ?", condition.Status)
	}
	if condition.Theme != "" {
		query = query.Where("theme = ?", condition.Theme)
	}
	return query
}

func (s *presentationService) DeleteCheck(record *model.Presentation) error {
	if record.Status == constant.PresentationStatusGenerating {
		return constant.ErrGenerationRunning
	}
	return nil
}

func (s *presentationService) DeleteHook(ctx context.Context, record *model.Presentation) {
	if err := s.db.WithContext(ctx).Where("presentation_id = ?", record.ID).Delete(&model.GenerationLog{}).Error; err != nil {
		logger.Error("删除生成日志失败", logger.F("presentationId", record.ID), logger.F("error", err))
	}
	if s.identities != nil {
		if err := s.identities.Delete(ctx, record.ID); err != nil {
			logger.Warn("删除幻灯片标识失败", logger.F("presentationId", record.ID), logger.F("error", err))
		}
	}
}

func (s *presentationService) Create(ctx context.Context, record *model.Presentation) error {
	if record.Title == "" {
		return constant.ErrInvalidParams
	}
	if record.Status == "" {
		record.Status = constant.PresentationStatusDraft
	}
	return s.BaseServiceImpl.Create(ctx, record)
}

func (s *presentationService) SaveContent(ctx context.Context, id uint64, doc slideparser.Document, status, runID string) error {
	if id == 0 {
		return constant.ErrRecordIDEmpty
	}
	if doc == nil {
		doc = slideparser.Document{}
	}
	// Select 保证空文档和零页数也会写入
	result := s.db.WithContext(ctx).Model(&model.Presentation{BaseModel: model.BaseModel{ID: id}}).
		Select("content", "slide_count", "status", "last_run_id", "updated_at").
		Updates(&model.Presentation{
			Content:    doc,
			SlideCount: len(doc),
			Status:     status,
			LastRunID:  runID,
		})
	if result.Error != nil {
		logger.Error("保存演示文稿内容失败", logger.F("id", id), logger.F("error", result.Error))
		return constant.ErrDatabaseError
	}
	if result.RowsAffected == 0 {
		return constant.ErrRecordNotFound
	}
	return nil
}

func (s *presentationService) UpdateStatus(ctx context.Context, id uint64, status, runID string) error {
	updates := map[string]interface{}{"status": status}
	if runID != "" {
		updates["last_run_id"] = runID
	}
	result := s.db.WithContext(ctx).Model(&model.Presentation{BaseModel: model.BaseModel{ID: id}}).Updates(updates)
	if result.Error != nil {
		logger.Error("更新演示文稿状态失败", logger.F("id", id), logger.F("error", result.Error))
		return constant.ErrDatabaseError
	}
	if result.RowsAffected == 0 {
		return constant.ErrRecordNotFound
	}
	return nil
}

func (s *presentationService) AppendLog(ctx context.Context, log *model.GenerationLog) error {
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		logger.Error("创建生成日志失败", logger.F("error", err))
		return constant.ErrDatabaseError
	}
	return nil
}

func (s *presentationService) ListLogs(ctx context.Context, presentationID uint64, runID string, offset, limit int) ([]*model.GenerationLog, int64, error) {
	var logs []*model.GenerationLog
	var total int64

	query := s.db.WithContext(ctx).Model(&model.GenerationLog{}).Where("presentation_id = ?", presentationID)
	if runID != "" {
		query = query.Where("run_id = ?", runID)
	}

	// 获取总数
	if err := query.Count(&total).Error; err != nil {
		logger.Error("获取日志总数失败", logger.F("error", err))
		return nil, 0, constant.ErrDatabaseError
	}

	if total > 0 && limit > 0 {
		if err := query.Offset(offset).Limit(limit).Order("created_at ASC, id ASC").Find(&logs).Error; err != nil {
			logger.Error("查询日志失败", logger.F("error", err))
			return nil, 0, constant.ErrDatabaseError
		}
	}
	return logs, total, nil
}
