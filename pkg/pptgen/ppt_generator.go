package pptgen

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/slideparser"
	"github.com/yockii/slide_stream/pkg/util"
)

// ErrNoSlides 没有可导出的幻灯片
var ErrNoSlides = errors.New("没有可导出的幻灯片")

// TemplateType 表示PPT模板类型
type TemplateType string

const (
	TemplateBusiness   TemplateType = "business"   // 商务模板
	TemplateAcademic   TemplateType = "academic"   // 学术模板
	TemplateMinimalist TemplateType = "minimalist" // 极简模板
)

// SlideLayout 表示幻灯片布局类型
type SlideLayout int

const (
	LayoutTitle      SlideLayout = iota // 标题幻灯片
	LayoutContent                       // 内容幻灯片
	LayoutTwoColumn                     // 两栏布局
	LayoutImage                         // 图片布局
	LayoutQuote                         // 引用布局
	LayoutThankYou                      // 结束页
	LayoutSubsection                    // 子内容布局，用于三级标题
)

const (
	defaultThemeColor   = "1F4E79"
	defaultFontFamily   = "Microsoft YaHei"
	defaultThankYouText = "谢谢观看"
)

// TemplateConfig 表示模板配置
type TemplateConfig struct {
	Type          TemplateType // 模板类型
	TemplatePath  string       // 模板文件路径，为空时使用内置的基础模板
	Title         string       // 文稿标题，写入文档属性
	ThemeColor    string       // 主题色，RRGGBB
	FontFamily    string       // 字体系列
	ThankYouSlide bool         // 是否追加结束页
	ThankYouText  string
}

func (c TemplateConfig) normalized() TemplateConfig {
	if color := normalizeColor(c.ThemeColor); color != "" {
		c.ThemeColor = color
	} else {
		c.ThemeColor = defaultThemeColor
	}
	if c.FontFamily == "" {
		c.FontFamily = defaultFontFamily
	}
	if c.ThankYouText == "" {
		c.ThankYouText = defaultThankYouText
	}
	return c
}

// PPTGenerator 处理PPT生成
type PPTGenerator struct {
	templates map[TemplateType]string // 模板路径映射
	debugDir  string
}

// NewPPTGenerator 创建一个新的PPT生成器
func NewPPTGenerator() *PPTGenerator {
	return &PPTGenerator{
		templates: make(map[TemplateType]string),
	}
}

// RegisterTemplate 注册自定义模板
func (g *PPTGenerator) RegisterTemplate(templateType TemplateType, path string) {
	g.templates[templateType] = path
}

// EnableDebug 生成时把幻灯片映射结果输出到 dir 下，并逐页记录日志
func (g *PPTGenerator) EnableDebug(dir string) {
	g.debugDir = dir
}

// GeneratePPTX 根据定稿的幻灯片生成PPTX
func (g *PPTGenerator) GeneratePPTX(config TemplateConfig, slides []slideparser.Slide) ([]byte, error) {
	if len(slides) == 0 {
		return nil, ErrNoSlides
	}
	config = config.normalized()
	contents := g.mapSlides(slides, config)

	// 创建一个内存缓冲区用于保存ZIP文件
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	if err := g.addPresentationFiles(zipWriter, contents, config); err != nil {
		return nil, err
	}

	if err := zipWriter.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// 添加演示文稿文件到ZIP
func (g *PPTGenerator) addPresentationFiles(zipWriter *zip.Writer, slides []SlideContent, config TemplateConfig) error {
	// 如果提供了模板路径，则基于模板创建
	if config.TemplatePath != "" {
		return g.createFromTemplate(zipWriter, slides, config)
	}

	if templatePath, exists := g.templates[config.Type]; exists {
		templateConfig := config
		templateConfig.TemplatePath = templatePath
		return g.createFromTemplate(zipWriter, slides, templateConfig)
	}

	// 否则使用基本模板
	if err := g.addContentTypes(zipWriter, slides); err != nil {
		return err
	}

	if err := g.addRels(zipWriter); err != nil {
		return err
	}

	if err := g.addPresentation(zipWriter, slides); err != nil {
		return err
	}

	if err := g.addSlides(zipWriter, slides, config); err != nil {
		return err
	}

	// 添加其他必要的文件
	return g.addMiscFiles(zipWriter, slides, config)
}

// WriteToFile 将PPTX写入文件
func (g *PPTGenerator) WriteToFile(pptxBytes []byte, filePath string) error {
	if err := util.SaveFile(filePath, pptxBytes); err != nil {
		logger.Error("写入PPTX文件失败", logger.F("filePath", filePath), logger.F("error", err))
		return err
	}
	return nil
}

// addSlides 写入所有幻灯片及其关系文件
func (g *PPTGenerator) addSlides(zipWriter *zip.Writer, slides []SlideContent, config TemplateConfig) error {
	if g.debugDir != "" {
		// 调试输出失败不影响导出
		_ = g.DumpSlideStructure(slides, filepath.Join(g.debugDir, "debug_slides.json"))
	}

	for i, slide := range slides {
		if g.debugDir != "" {
			g.LogSlideGeneration(i, slide)
		}

		slideNum := i + 1
		slidePath := fmt.Sprintf("ppt/slides/slide%d.xml", slideNum)
		if err := writePart(zipWriter, slidePath, g.generateSlideXML(slide, config)); err != nil {
			return err
		}

		slideRelPath := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", slideNum)
		if err := writePart(zipWriter, slideRelPath, g.generateSlideRelXML(slide)); err != nil {
			return err
		}
	}

	return nil
}

// generateSlideRelXML 幻灯片关系。图片以外部链接的方式引用，不下载内容
func (g *PPTGenerator) generateSlideRelXML(slide SlideContent) string {
	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>`
	if slide.ImageURL != "" {
		rels += fmt.Sprintf(`
	<Relationship Id="%s" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="%s" TargetMode="External"/>`,
			imageRelID, escapeAttr(slide.ImageURL))
	}
	return rels + `
</Relationships>`
}

func writePart(zipWriter *zip.Writer, name, content string) error {
	w, err := zipWriter.Create(name)
	if err != nil {
		logger.Error("创建文件失败", logger.F("filename", name), logger.F("error", err))
		return err
	}
	if _, err = w.Write([]byte(content)); err != nil {
		logger.Error("写入文件内容失败", logger.F("filename", name), logger.F("error", err))
		return err
	}
	return nil
}
