package pptgen

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"

	"github.com/yockii/slide_stream/pkg/logger"
)

var (
	templateSlidePattern = regexp.MustCompile(`^ppt/slides/slide\d+\.xml$`)
	templateSlideParts   = regexp.MustCompile(`^ppt/slides/(_rels/)?slide\d+\.xml(\.rels)?$`)
)

// 从模板创建PPTX，沿用模板的母版、版式和主题，幻灯片全部重新生成
func (g *PPTGenerator) createFromTemplate(zipWriter *zip.Writer, slides []SlideContent, config TemplateConfig) error {
	// 打开模板文件
	templateFile, err := os.Open(config.TemplatePath)
	if err != nil {
		logger.Error("打开模板文件失败", logger.F("templatePath", config.TemplatePath), logger.F("error", err))
		return err
	}
	defer templateFile.Close()

	templateZip, err := zip.NewReader(templateFile, getFileSize(templateFile))
	if err != nil {
		logger.Error("创建模板ZIP读取器失败", logger.F("error", err))
		return err
	}

	logger.Debug("使用模板导出",
		logger.F("templatePath", config.TemplatePath),
		logger.F("templateSlides", countSlidesInTemplate(templateZip)),
		logger.F("slides", len(slides)))

	// 先保存模板中所有文件的数据，稍后会按需修改
	templateFiles := make(map[string][]byte)
	for _, file := range templateZip.File {
		// 强制删除所有模板幻灯片，使用新的幻灯片
		if templateSlideParts.MatchString(file.Name) {
			continue
		}
		data, err := readZipFile(file)
		if err != nil {
			logger.Error("读取模板文件失败", logger.F("filename", file.Name), logger.F("error", err))
			continue
		}
		templateFiles[file.Name] = data
	}

	_, hasDocProps := templateFiles["docProps/core.xml"]
	templateFiles["[Content_Types].xml"] = []byte(contentTypesXML(len(slides), hasDocProps))
	templateFiles["ppt/presentation.xml"] = []byte(presentationXML(len(slides)))
	templateFiles["ppt/_rels/presentation.xml.rels"] = []byte(presentationRelsXML(len(slides)))

	for i, slide := range slides {
		templateFiles[fmt.Sprintf("ppt/slides/slide%d.xml", i+1)] = []byte(g.generateSlideXML(slide, config))
		templateFiles[fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", i+1)] = []byte(g.generateSlideRelXML(slide))
	}

	// 按名称排序写入，保证输出稳定
	names := make([]string, 0, len(templateFiles))
	for name := range templateFiles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writePart(zipWriter, name, string(templateFiles[name])); err != nil {
			return err
		}
	}

	return nil
}

// 获取文件大小
func getFileSize(file *os.File) int64 {
	info, err := file.Stat()
	if err != nil {
		return 0
	}
	return info.Size()
}

// 从ZIP文件中读取内容
func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func countSlidesInTemplate(templateZip *zip.Reader) int {
	count := 0
	for _, file := range templateZip.File {
		if templateSlidePattern.MatchString(file.Name) {
			count++
		}
	}
	return count
}
