package service

import (
	"context"
	"net/http"

	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PresentationService interface {
	Create(ctx context.Context, record *model.Presentation) error
	Update(ctx context.Context, record *model.Presentation) error
	Delete(ctx context.Context, id uint64) error
	Get(ctx context.Context, id uint64) (*model.Presentation, error)
	List(ctx context.Context, condition *model.Presentation, offset, limit int) ([]*model.Presentation, int64, error)

	// SaveContent 保存解析后的文档，并更新状态与页数
	SaveContent(ctx context.Context, id uint64, doc slideparser.Document, status, runID string) error
	UpdateStatus(ctx context.Context, id uint64, status, runID string) error
	AppendLog(ctx context.Context, log *model.GenerationLog) error
	ListLogs(ctx context.Context, presentationID uint64, runID string, offset, limit int) ([]*model.GenerationLog, int64, error)
}

// IdentityStore 按演示文稿保存指纹到幻灯片 ID 的映射，使重新生成时 ID 保持不变
type IdentityStore interface {
	Load(ctx context.Context, presentationID uint64) (map[string]string, error)
	Save(ctx context.Context, presentationID uint64, entries map[string]string) error
	Delete(ctx context.Context, presentationID uint64) error
}

type GenerationService interface {
	// Run 执行一次生成，sink 依次收到增量，返回最终文档
	Run(ctx context.Context, presentationID uint64, req *GenerateRequest, sink func(*Delta) error) (slideparser.Document, error)
	IsRunning(presentationID uint64) bool
	Cancel(presentationID uint64) bool
}

// /////////////////////////////
// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func OK(data interface{}) *Response {
	return NewResponse(data, nil)
}

func Error(err error) *Response {
	return NewResponse(nil, err)
}

// NewResponse 创建响应
func NewResponse(data interface{}, err error) *Response {
	if err == nil {
		return &Response{
			Code:    http.StatusOK,
			Message: "success",
			Data:    data,
		}
	}

	code := constant.GetErrorCode(err)
	return &Response{
		Code:    code,
		Message: err.Error(),
		Data:    data,
	}
}

// ListResponse 列表响应结构
type ListResponse struct {
	Total  int64       `json:"total"`
	Items  interface{} `json:"items"`
	Offset int         `json:"offset"`
	Limit  int         `json:"limit"`
}

// NewListResponse 创建列表响应
func NewListResponse(items interface{}, total int64, offset, limit int) *ListResponse {
	return &ListResponse{
		Total:  total,
		Items:  items,
		Offset: offset,
		Limit:  limit,
	}
}
