package constant

// 生成日志的作者，上游未给出时使用
const (
	LogAuthorSystem = "system"
	LogAuthorModel  = "model"
)

// 演示文稿状态
const (
	PresentationStatusDraft      = "draft"
	PresentationStatusGenerating = "generating"
	PresentationStatusCompleted  = "completed"
	PresentationStatusFailed     = "failed"
)
