package pptgen

import (
	"encoding/json"

	"github.com/yockii/slide_stream/pkg/logger"
	"github.com/yockii/slide_stream/pkg/util"
)

// DumpSlideStructure outputs the slide structure to a file for debugging
func (g *PPTGenerator) DumpSlideStructure(slides []SlideContent, filePath string) error {
	data, err := json.MarshalIndent(slides, "", "  ")
	if err != nil {
		logger.Warn("序列化幻灯片数据失败", logger.F("error", err))
		return err
	}

	if err := util.SaveFile(filePath, data); err != nil {
		logger.Warn("写入调试文件失败", logger.F("filePath", filePath), logger.F("error", err))
		return err
	}

	logger.Info("Slide summary", logger.F("slideCount", len(slides)), logger.F("filePath", filePath))
	return nil
}

// LogSlideGeneration logs information during the generation of each slide
func (g *PPTGenerator) LogSlideGeneration(index int, slide SlideContent) {
	contentPreview := ""
	nested := 0
	if len(slide.Content) > 0 {
		contentPreview = slide.Content[0].Text()
		if r := []rune(contentPreview); len(r) > 30 {
			contentPreview = string(r[:30]) + "..."
		}
		for _, line := range slide.Content {
			if line.Level > 0 {
				nested++
			}
		}
	}

	logger.Info("Generating slide",
		logger.F("index", index),
		logger.F("id", slide.ID),
		logger.F("layout", slide.Layout),
		logger.F("level", slide.Level),
		logger.F("title", slide.Title),
		logger.F("subtitle", slide.Subtitle),
		logger.F("image", slide.ImageURL != ""),
		logger.F("contentPreview", contentPreview),
		logger.F("contentCount", len(slide.Content)),
		logger.F("nestedCount", nested))
}
