package constant

import (
	"errors"
	"net/http"
)

// 自定义错误
var (
	// 通用错误
	ErrInternalError    = errors.New("内部错误")
	ErrInvalidParams    = errors.New("参数错误")
	ErrUnauthorized     = errors.New("未授权")
	ErrForbidden        = errors.New("禁止访问")
	ErrDatabaseError    = errors.New("数据库错误")
	ErrInvalidToken     = errors.New("无效的token")
	ErrInvalidOperation = errors.New("无效的操作")
	ErrTokenExpired     = errors.New("token已过期")
	ErrRecordDuplicate  = errors.New("记录重复")
	ErrRecordNotFound   = errors.New("记录不存在")
	ErrRecordIDEmpty    = errors.New("ID不能为空")
	ErrSerializeError   = errors.New("序列化错误")
	ErrDeserializeError = errors.New("反序列化错误")
	ErrCacheError       = errors.New("缓存错误")
	ErrTooManyRequests  = errors.New("请求过于频繁")

	// 生成相关错误
	ErrGenerationRunning = errors.New("该演示文稿正在生成中")
	ErrUpstreamStream    = errors.New("上游模型流异常")
	ErrEmptyDocument     = errors.New("文档内容为空")

	// 导出相关错误
	ErrExportFailed = errors.New("导出失败")
)

// 获取错误对应的HTTP状态码，包装过的错误按链路匹配
func GetErrorCode(err error) int {
	switch {
	// 通用错误
	case errors.Is(err, ErrInternalError):
		return http.StatusInternalServerError
	case errors.Is(err, ErrInvalidParams):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrDatabaseError):
		return http.StatusInternalServerError
	case errors.Is(err, ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidOperation):
		return http.StatusBadRequest
	case errors.Is(err, ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, ErrRecordDuplicate):
		return http.StatusBadRequest
	case errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRecordIDEmpty):
		return http.StatusBadRequest
	case errors.Is(err, ErrSerializeError):
		return http.StatusInternalServerError
	case errors.Is(err, ErrDeserializeError):
		return http.StatusInternalServerError
	case errors.Is(err, ErrCacheError):
		return http.StatusInternalServerError
	case errors.Is(err, ErrTooManyRequests):
		return http.StatusTooManyRequests

	// 生成相关错误
	case errors.Is(err, ErrGenerationRunning):
		return http.StatusConflict
	case errors.Is(err, ErrUpstreamStream):
		return http.StatusBadGateway
	case errors.Is(err, ErrEmptyDocument):
		return http.StatusUnprocessableEntity

	// 导出相关错误
	case errors.Is(err, ErrExportFailed):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
