package model

import (
	"time"

	"gorm.io/gorm"

	"github.com/yockii/slide_stream/pkg/slideparser"
	"github.com/yockii/slide_stream/pkg/util"
)

// Presentation 演示文稿
type Presentation struct {
	BaseModel
	Title      string               `json:"title" gorm:"type:varchar(200);not null"`
	Outline    []string             `json:"outline" gorm:"type:text;serializer:json"`
	Content    slideparser.Document `json:"content" gorm:"type:text;serializer:json"`
	Theme      string               `json:"theme" gorm:"type:varchar(50)"`
	Language   string               `json:"language" gorm:"type:varchar(50)"`
	Tone       string               `json:"tone" gorm:"type:varchar(100)"`
	NumSlides  int                  `json:"numSlides" gorm:"type:int;default:0"`
	Status     string               `json:"status" gorm:"type:varchar(20);index;not null"` // draft, generating, completed, failed
	SlideCount int                  `json:"slideCount" gorm:"type:int;default:0"`
	LastRunID  string               `json:"lastRunId" gorm:"type:varchar(40)"`
	UpdatedAt  time.Time            `json:"updatedAt,omitzero" gorm:"type:timestamp;not null"`
}

func (p *Presentation) TableComment() string {
	return "演示文稿表"
}

// BeforeCreate 创建前钩子
func (p *Presentation) BeforeCreate(tx *gorm.DB) error {
	if p.ID == 0 {
		p.ID = util.NewID()
	}
	return nil
}

// GenerationLog 生成过程中上游返回的非内容事件
type GenerationLog struct {
	BaseModel
	PresentationID uint64   `json:"presentationId,string" gorm:"index;not null"`
	RunID          string   `json:"runId" gorm:"type:varchar(40);index"`
	Type           string   `json:"type" gorm:"type:varchar(50)"`
	Author         string   `json:"author" gorm:"type:varchar(100)"`
	Data           string   `json:"data" gorm:"type:text"`
	References     []string `json:"references" gorm:"type:text;serializer:json"`
}

func (l *GenerationLog) TableComment() string {
	return "生成日志表"
}

// BeforeCreate 创建前钩子
func (l *GenerationLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == 0 {
		l.ID = util.NewID()
	}
	return nil
}

// SlideIdentity 幻灯片指纹与 ID 的对应关系，未启用 redis 时落库
type SlideIdentity struct {
	BaseModel
	PresentationID uint64 `json:"presentationId,string" gorm:"uniqueIndex:idx_identity_fp;not null"`
	Fingerprint    string `json:"fingerprint" gorm:"type:varchar(512);uniqueIndex:idx_identity_fp;not null"`
	SlideID        string `json:"slideId" gorm:"type:varchar(40);not null"`
}

func (i *SlideIdentity) TableComment() string {
	return "幻灯片标识表"
}

// BeforeCreate 创建前钩子
func (i *SlideIdentity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == 0 {
		i.ID = util.NewID()
	}
	return nil
}

func init() {
	models = append(models, &Presentation{}, &GenerationLog{}, &SlideIdentity{})
}
