package appapi

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/valyala/fasthttp"
	"github.com/yockii/slide_stream/internal/constant"
	"github.com/yockii/slide_stream/internal/middleware"
	"github.com/yockii/slide_stream/internal/model"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/outline"
	"github.com/yockii/slide_stream/pkg/pptgen"
)

const pptxContentType = "application/vnd.openxmlformats-officedocument.presentationml.presentation"

type PresentationHandler struct {
	presentationService service.PresentationService
	generationService   service.GenerationService
	pptGenerator        *pptgen.PPTGenerator
}

func RegisterPresentationHandler(
	presentationService service.PresentationService,
	generationService service.GenerationService,
) {
	handler := &PresentationHandler{
		presentationService: presentationService,
		generationService:   generationService,
		pptGenerator:        pptgen.NewPPTGenerator(),
	}
	Handlers = append(Handlers, handler)
}

func (h *PresentationHandler) RegisterRoutes(router fiber.Router) {
	presentationRouter := router.Group("/presentation")
	{
		presentationRouter.Post("/", h.Create)
		presentationRouter.Get("/list", h.List)
		presentationRouter.Post("/parse", h.Parse)
		presentationRouter.Get("/:id", h.Get)
		presentationRouter.Put("/:id", h.Update)
		presentationRouter.Delete("/:id", h.Delete)
		presentationRouter.Get("/:id/logs", h.ListLogs)

		presentationRouter.Post("/:id/generate", h.Generate)
		presentationRouter.Post("/:id/cancel", h.Cancel)

		presentationRouter.Post("/:id/export", h.Export)
		presentationRouter.Post("/:id/export_token", h.ExportToken)
	}
}

func (h *PresentationHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/download/:token", h.Download)
}

type PresentationRequest struct {
	Title           string   `json:"title"`
	Outline         []string `json:"outline"`
	OutlineMarkdown string   `json:"outlineMarkdown"`
	Theme           string   `json:"theme"`
	Language        string   `json:"language"`
	Tone            string   `json:"tone"`
	NumSlides       int      `json:"numSlides"`
}

func (r *PresentationRequest) toModel() *model.Presentation {
	items := r.Outline
	if len(items) == 0 && r.OutlineMarkdown != "" {
		items = outline.Split(r.OutlineMarkdown)
	}
	return &model.Presentation{
		Title:     r.Title,
		Outline:   outline.Normalize(items),
		Theme:     r.Theme,
		Language:  r.Language,
		Tone:      r.Tone,
		NumSlides: r.NumSlides,
	}
}

func parseID(c *fiber.Ctx) (uint64, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		logger.Error("请求参数解析失败", logger.F("id", c.Params("id")))
		return 0, constant.ErrInvalidParams
	}
	return id, nil
}

// Create 创建演示文稿
func (h *PresentationHandler) Create(c *fiber.Ctx) error {
	var req PresentationRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("请求参数解析失败", logger.F("err", err))
		return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
	}
	if req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
	}

	record := req.toModel()
	if err := h.presentationService.Create(c.Context(), record); err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(record))
}

// Update 更新演示文稿的基本信息，生成过程中不允许修改
func (h *PresentationHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	var req PresentationRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("请求参数解析失败", logger.F("err", err))
		return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
	}
	if h.generationService.IsRunning(id) {
		return fail(c, constant.ErrGenerationRunning)
	}

	record := req.toModel()
	record.ID = id
	if err := h.presentationService.Update(c.Context(), record); err != nil {
		return fail(c, err)
	}
	updated, err := h.presentationService.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(updated))
}

// Get 获取演示文稿详情，包含已解析的内容
func (h *PresentationHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	record, err := h.presentationService.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(record))
}

// List 获取演示文稿列表
func (h *PresentationHandler) List(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", service.DefaultPageSize)
	if limit > service.MaxPageSize {
		limit = service.MaxPageSize
	}

	condition := &model.Presentation{
		Title:    c.Query("title"),
		Status:   c.Query("status"),
		Language: c.Query("language"),
	}
	list, total, err := h.presentationService.List(c.Context(), condition, offset, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(service.NewListResponse(list, total, offset, limit)))
}

// Delete 删除演示文稿及其生成日志
func (h *PresentationHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	if h.generationService.IsRunning(id) {
		return fail(c, constant.ErrGenerationRunning)
	}
	if err := h.presentationService.Delete(c.Context(), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(nil))
}

// ListLogs 获取生成日志，可按 run_id 过滤
func (h *PresentationHandler) ListLogs(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", service.DefaultPageSize)
	if limit > service.MaxPageSize {
		limit = service.MaxPageSize
	}

	logs, total, err := h.presentationService.ListLogs(c.Context(), id, c.Query("run_id"), offset, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(service.OK(service.NewListResponse(logs, total, offset, limit)))
}

// Generate 流式生成幻灯片，每行一个 JSON 增量
func (h *PresentationHandler) Generate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	var req service.GenerateRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			logger.Error("请求参数解析失败", logger.F("err", err))
			return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
		}
	}
	if _, err := h.presentationService.Get(c.Context(), id); err != nil {
		return fail(c, err)
	}
	if h.generationService.IsRunning(id) {
		return fail(c, constant.ErrGenerationRunning)
	}

	c.Set("Content-Type", "application/x-ndjson")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Status(fiber.StatusOK).Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sent := false
		// 请求上下文在处理函数返回后失效，生成使用独立的上下文；客户端断开时写入失败会终止生成
		_, err := h.generationService.Run(context.Background(), id, &req, func(d *service.Delta) error {
			sent = true
			return writeDelta(w, d)
		})
		if err != nil {
			logger.Warn("生成结束", logger.F("presentationId", id), logger.F("err", err))
			if !sent {
				_ = writeDelta(w, &service.Delta{Type: service.DeltaTypeError, Message: err.Error()})
			}
		}
	}))
	return nil
}

func writeDelta(w *bufio.Writer, d *service.Delta) error {
	data, err := json.Marshal(d)
	if err != nil {
		logger.Error("序列化增量失败", logger.F("err", err))
		return constant.ErrSerializeError
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return err
	}
	return w.Flush()
}

// Cancel 取消正在进行的生成
func (h *PresentationHandler) Cancel(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	if !h.generationService.Cancel(id) {
		return fail(c, constant.ErrInvalidOperation)
	}
	return c.JSON(service.OK(nil))
}

type ParseRequest struct {
	Markup string `json:"markup"`
}

// Parse 一次性解析完整的标记文本
func (h *PresentationHandler) Parse(c *fiber.Ctx) error {
	var req ParseRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("请求参数解析失败", logger.F("err", err))
		return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
	}
	if req.Markup == "" {
		return c.Status(fiber.StatusBadRequest).JSON(service.Error(constant.ErrInvalidParams))
	}

	parser := service.NewParser()
	parser.Feed(req.Markup)
	parser.Finalize()
	return c.JSON(service.OK(parser.GetAllSlides()))
}

// Export 直接返回 PPTX 文件
func (h *PresentationHandler) Export(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	data, record, err := h.render(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return sendPPTX(c, record.Title, data)
}

type downloadClaims struct {
	PresentationID string `json:"pid"`
	jwt.RegisteredClaims
}

// ExportToken 签发短期有效的下载令牌
func (h *PresentationHandler) ExportToken(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return fail(c, err)
	}
	record, err := h.presentationService.Get(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	if len(record.Content) == 0 {
		return fail(c, constant.ErrEmptyDocument)
	}

	client, _ := c.Locals(middleware.LocalsClientKey).(string)
	now := time.Now()
	expiresAt := now.Add(config.GetSeconds("security.download_expire"))
	claims := downloadClaims{
		PresentationID: strconv.FormatUint(id, 10),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   client,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(config.GetDownloadSecret())
	if err != nil {
		logger.Error("签发下载令牌失败", logger.F("err", err))
		return fail(c, constant.ErrInternalError)
	}

	return c.JSON(service.OK(fiber.Map{
		"token":     token,
		"url":       "/download/" + token,
		"expiresAt": expiresAt.Unix(),
	}))
}

// Download 凭下载令牌获取 PPTX，不需要 API Key
func (h *PresentationHandler) Download(c *fiber.Ctx) error {
	claims := &downloadClaims{}
	_, err := jwt.ParseWithClaims(c.Params("token"), claims, func(t *jwt.Token) (interface{}, error) {
		return config.GetDownloadSecret(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fail(c, constant.ErrTokenExpired)
		}
		logger.Warn("下载令牌无效", logger.F("err", err))
		return fail(c, constant.ErrInvalidToken)
	}

	id, err := strconv.ParseUint(claims.PresentationID, 10, 64)
	if err != nil {
		return fail(c, constant.ErrInvalidToken)
	}
	data, record, err := h.render(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return sendPPTX(c, record.Title, data)
}

func (h *PresentationHandler) render(ctx context.Context, id uint64) ([]byte, *model.Presentation, error) {
	record, err := h.presentationService.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if len(record.Content) == 0 {
		return nil, nil, constant.ErrEmptyDocument
	}

	data, err := h.pptGenerator.GeneratePPTX(pptgen.TemplateConfig{
		Type:          pptgen.TemplateType(record.Theme),
		TemplatePath:  config.GetString("export.template_path"),
		Title:         record.Title,
		ThankYouSlide: config.GetBool("export.thank_you_slide"),
	}, record.Content)
	if err != nil {
		logger.Error("生成PPTX失败", logger.F("presentationId", id), logger.F("err", err))
		return nil, nil, fmt.Errorf("%w: %v", constant.ErrExportFailed, err)
	}
	return data, record, nil
}

func sendPPTX(c *fiber.Ctx, title string, data []byte) error {
	filename := title + ".pptx"
	c.Set("Content-Type", pptxContentType)
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="presentation.pptx"; filename*=UTF-8''%s`, url.PathEscape(filename)))
	return c.Status(fiber.StatusOK).Send(data)
}
