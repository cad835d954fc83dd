package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/llm"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/outline"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

// 增量类型
const (
	DeltaTypeSlides = "slides"
	DeltaTypeLog    = "log"
	DeltaTypeDone   = "done"
	DeltaTypeError  = "error"
)

// Delta 推送给客户端的一条增量
type Delta struct {
	Type     string               `json:"type"`
	RunID    string               `json:"runId"`
	Slides   []slideparser.Slide  `json:"slides,omitempty"`
	Document slideparser.Document `json:"document,omitempty"`
	Author   string               `json:"author,omitempty"`
	Message  string               `json:"message,omitempty"`
	Status   string               `json:"status,omitempty"`
}

// Generator 上游模型流，*llm.StreamClient 实现了该接口
type Generator interface {
	Generate(ctx context.Context, req *llm.GenerateRequest, cb func(llm.Event) error) error
}

type generationService struct {
	presentations PresentationService
	identities    IdentityStore
	generator     Generator

	mu      sync.Mutex
	running map[uint64]context.CancelFunc
}

func NewGenerationService(presentations PresentationService, identities IdentityStore, generator Generator) *generationService {
	return &generationService{
		presentations: presentations,
		identities:    identities,
		generator:     generator,
		running:       make(map[uint64]context.CancelFunc),
	}
}

func (s *generationService) acquire(id uint64, cancel context.CancelFunc) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[id]; ok {
		return false
	}
	s.running[id] = cancel
	return true
}

func (s *generationService) release(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

func (s *generationService) IsRunning(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[id]
	return ok
}

// Cancel 取消正在进行的生成，已解析的内容仍会保存
func (s *generationService) Cancel(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	cancel, ok := s.running[id]
	if ok {
		cancel()
	}
	return ok
}

func (s *generationService) Run(ctx context.Context, presentationID uint64, req *GenerateRequest, sink func(*Delta) error) (slideparser.Document, error) {
	if req == nil {
		req = &GenerateRequest{}
	}
	if sink == nil {
		sink = func(*Delta) error { return nil }
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if !s.acquire(presentationID, cancel) {
		return nil, constant.ErrGenerationRunning
	}
	defer s.release(presentationID)

	p, err := s.presentations.Get(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	s.fillRequest(req, p)
	if req.Title == "" || len(req.Outline) == 0 || req.Language == "" {
		return nil, constant.ErrInvalidParams
	}
	if err := s.presentations.Update(ctx, &model.Presentation{
		BaseModel: model.BaseModel{ID: presentationID},
		Title:     req.Title,
		Outline:   req.Outline,
		Language:  req.Language,
		Tone:      req.Tone,
		NumSlides: req.NumSlides,
	}); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	registry := slideparser.NewMemoryRegistry()
	if entries, err := s.identities.Load(ctx, presentationID); err != nil {
		logger.Warn("加载幻灯片标识失败，将生成新的标识", logger.F("presentationId", presentationID), logger.F("error", err))
	} else {
		registry.Restore(entries)
	}
	parser := NewParser(slideparser.WithRegistry(registry))

	if err := s.presentations.UpdateStatus(ctx, presentationID, constant.PresentationStatusGenerating, runID); err != nil {
		return nil, err
	}
	logger.Info("开始生成演示文稿", logger.F("presentationId", presentationID), logger.F("runId", runID))

	genErr := s.generator.Generate(ctx, &llm.GenerateRequest{
		Model:  req.Model,
		Prompt: BuildPrompt(req, ParserDialect()),
	}, func(ev llm.Event) error {
		if ev.Type == llm.EventStatusUpdate {
			deltas := parser.Feed(ev.Data)
			if len(deltas) == 0 {
				return nil
			}
			return sink(&Delta{Type: DeltaTypeSlides, RunID: runID, Slides: deltas, Document: parser.GetAllSlides()})
		}
		author := ev.Author
		if author == "" {
			author = constant.LogAuthorModel
		}
		if err := s.presentations.AppendLog(ctx, &model.GenerationLog{
			PresentationID: presentationID,
			RunID:          runID,
			Type:           ev.Type,
			Author:         author,
			Data:           ev.Data,
			References:     ev.References,
		}); err != nil {
			logger.Warn("保存生成日志失败", logger.F("runId", runID), logger.F("error", err))
		}
		return sink(&Delta{Type: DeltaTypeLog, RunID: runID, Author: author, Message: ev.Data})
	})

	// 即使失败也保留已经解析出的内容
	final := parser.Finalize()
	parser.ClearAllGeneratingMarks()
	doc := parser.GetAllSlides()

	status := constant.PresentationStatusCompleted
	if genErr != nil {
		status = constant.PresentationStatusFailed
		logger.Error("生成演示文稿失败", logger.F("presentationId", presentationID), logger.F("runId", runID), logger.F("error", genErr))
	}

	persistCtx := context.WithoutCancel(ctx)
	if err := s.presentations.SaveContent(persistCtx, presentationID, doc, status, runID); err != nil && genErr == nil {
		genErr = err
		status = constant.PresentationStatusFailed
	}
	if err := s.identities.Save(persistCtx, presentationID, registry.Snapshot()); err != nil {
		logger.Warn("保存幻灯片标识失败", logger.F("presentationId", presentationID), logger.F("error", err))
	}

	if genErr != nil {
		if errors.Is(genErr, context.Canceled) {
			logger.Info("生成已取消", logger.F("presentationId", presentationID), logger.F("runId", runID))
		}
		// 客户端可能已经断开，推送失败忽略
		_ = sink(&Delta{Type: DeltaTypeError, RunID: runID, Slides: final, Document: doc, Message: genErr.Error(), Status: status})
		return doc, genErr
	}

	if err := sink(&Delta{Type: DeltaTypeDone, RunID: runID, Slides: final, Document: doc, Status: status}); err != nil {
		logger.Warn("推送完成事件失败", logger.F("runId", runID), logger.F("error", err))
	}
	logger.Info("演示文稿生成完成", logger.F("presentationId", presentationID), logger.F("runId", runID), logger.F("slides", len(doc)))
	return doc, nil
}

// fillRequest 用演示文稿中保存的值补全请求
func (s *generationService) fillRequest(req *GenerateRequest, p *model.Presentation) {
	if req.OutlineMarkdown != "" && len(req.Outline) == 0 {
		req.Outline = outline.Split(req.OutlineMarkdown)
	}
	req.Outline = outline.Normalize(req.Outline)

	if req.Title == "" {
		req.Title = p.Title
	}
	if len(req.Outline) == 0 {
		req.Outline = p.Outline
	}
	if req.Language == "" {
		req.Language = p.Language
	}
	if req.Tone == "" {
		req.Tone = p.Tone
	}
	if req.NumSlides <= 0 {
		req.NumSlides = p.NumSlides
	}
	if req.NumSlides <= 0 {
		req.NumSlides = len(req.Outline)
	}
}
