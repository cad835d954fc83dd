package pptgen

import (
	"strconv"
	"strings"

	"github.com/yockii/slide_stream/pkg/slideparser"
)

// 缩进层级上限，再深的内容都放在最后一级
const maxLineLevel = 4

// ContentLine 导出后的一行文本
type ContentLine struct {
	Runs     []slideparser.TextRun `json:"runs"`
	Level    int                   `json:"level"`
	Emphasis bool                  `json:"emphasis,omitempty"`
}

// Text 返回该行的纯文本
func (l ContentLine) Text() string {
	return strings.TrimSpace(slideparser.RunsText(l.Runs))
}

// SlideContent 表示单个幻灯片的导出内容
type SlideContent struct {
	ID              string        `json:"id,omitempty"`
	Title           string        `json:"title"`
	Subtitle        string        `json:"subtitle,omitempty"`
	Content         []ContentLine `json:"content,omitempty"`
	Layout          SlideLayout   `json:"layout"`
	ImageURL        string        `json:"imageUrl,omitempty"`
	ImageAlt        string        `json:"imageAlt,omitempty"`
	ImageOnLeft     bool          `json:"imageOnLeft,omitempty"`
	QuoteText       string        `json:"quoteText,omitempty"`
	Level           int           `json:"level"`                 // 标题级别，0 表示没有标题
	ParentTitle     string        `json:"parentTitle,omitempty"` // 三级标题页所属的上级标题
	BackgroundColor string        `json:"bgColor,omitempty"`
	LeftColumn      []ContentLine `json:"leftColumn,omitempty"`
	RightColumn     []ContentLine `json:"rightColumn,omitempty"`
}

// mapSlides 把解析结果转换为导出用的幻灯片
func (g *PPTGenerator) mapSlides(slides []slideparser.Slide, config TemplateConfig) []SlideContent {
	contents := make([]SlideContent, 0, len(slides)+1)
	parentTitle := ""
	for _, s := range slides {
		c := mapSlide(s)
		if c.Layout == LayoutSubsection {
			c.ParentTitle = parentTitle
		} else if c.Title != "" {
			parentTitle = c.Title
		}
		contents = append(contents, c)
	}

	if config.ThankYouSlide {
		contents = append(contents, SlideContent{
			Title:  config.ThankYouText,
			Layout: LayoutThankYou,
		})
	}
	return contents
}

func mapSlide(s slideparser.Slide) SlideContent {
	c := SlideContent{
		ID:              s.ID,
		Layout:          LayoutContent,
		BackgroundColor: s.BackgroundColor,
	}

	body := make([]slideparser.Node, 0, len(s.Content))
	for _, n := range s.Content {
		if h, ok := n.(*slideparser.Heading); ok && c.Level == 0 {
			if title := strings.TrimSpace(slideparser.RunsText(h.Runs)); title != "" {
				c.Title = title
				c.Level = h.Level
				continue
			}
		}
		body = append(body, n)
	}

	if s.RootImage != nil {
		c.ImageURL = s.RootImage.URL
		c.ImageAlt = s.RootImage.AltText
		c.ImageOnLeft = s.LayoutType != nil && *s.LayoutType == slideparser.LayoutLeft
	}

	// 正文里的第一张图片在没有根图片时提升为幻灯片图片
	for i, n := range body {
		if img, ok := n.(*slideparser.Image); ok && c.ImageURL == "" {
			c.ImageURL = img.URL
			c.ImageAlt = img.Alt
			body = append(body[:i:i], body[i+1:]...)
			break
		}
	}

	for _, n := range body {
		c.Content = flattenNode(n, 0, c.Content)
	}

	switch {
	case c.Level == 3:
		c.Layout = LayoutSubsection
		c.Subtitle = c.Title
		c.Title = ""
	case c.Level == 1 && c.ImageURL == "" && len(c.Content) <= 1:
		c.Layout = LayoutTitle
		if len(c.Content) == 1 {
			c.Subtitle = c.Content[0].Text()
			c.Content = nil
		}
	case c.Title == "" && c.ImageURL == "" && len(body) == 1 && len(c.Content) == 1 && isParagraph(body[0]):
		c.Layout = LayoutQuote
		c.QuoteText = c.Content[0].Text()
		c.Content = nil
	case c.ImageURL != "" && len(c.Content) == 0:
		c.Layout = LayoutImage
	case c.ImageURL != "":
		c.Layout = LayoutTwoColumn
	case len(body) == 1 && isTwoColumns(body[0]):
		cols := body[0].(*slideparser.Columns)
		c.Layout = LayoutTwoColumn
		c.LeftColumn = flattenItem(cols.Items[0], 0, nil)
		c.RightColumn = flattenItem(cols.Items[1], 0, nil)
		c.Content = nil
	}
	return c
}

func isParagraph(n slideparser.Node) bool {
	_, ok := n.(*slideparser.Paragraph)
	return ok
}

func isTwoColumns(n slideparser.Node) bool {
	cols, ok := n.(*slideparser.Columns)
	return ok && len(cols.Items) == 2
}

// flattenNode 把节点展开为若干行文本
func flattenNode(n slideparser.Node, level int, lines []ContentLine) []ContentLine {
	if level > maxLineLevel {
		level = maxLineLevel
	}
	switch v := n.(type) {
	case *slideparser.Heading:
		lines = appendLine(lines, v.Runs, level, true)
	case *slideparser.Paragraph:
		lines = appendLine(lines, v.Runs, level, false)
		for _, child := range v.Children {
			lines = flattenNode(child, level, lines)
		}
	case *slideparser.Image:
		if len(v.Runs) > 0 {
			lines = appendLine(lines, v.Runs, level, false)
		} else if v.Alt != "" {
			lines = appendLine(lines, []slideparser.TextRun{{Text: v.Alt}}, level, false)
		}
	case *slideparser.Columns:
		lines = flattenItems(v.Items, level, lines)
	case *slideparser.Bullets:
		lines = flattenItems(v.Items, level, lines)
	case *slideparser.Cycle:
		lines = flattenItems(v.Items, level, lines)
	case *slideparser.Staircase:
		lines = flattenItems(v.Items, level, lines)
	case *slideparser.VisualizationList:
		lines = flattenItems(v.Items, level, lines)
	case *slideparser.IconList:
		for _, it := range v.Items {
			lines = flattenItem(slideparser.Item{Children: it.Children}, level, lines)
		}
	case *slideparser.Chart:
		for _, d := range v.Data {
			text := d.Label + ": " + strconv.FormatFloat(d.Value, 'f', -1, 64)
			lines = appendLine(lines, []slideparser.TextRun{{Text: text}}, level, false)
		}
	}
	return lines
}

func flattenItems(items []slideparser.Item, level int, lines []ContentLine) []ContentLine {
	for _, it := range items {
		lines = flattenItem(it, level, lines)
	}
	return lines
}

// flattenItem 每一项的第一行保持当前层级，其余内容缩进一级
func flattenItem(it slideparser.Item, level int, lines []ContentLine) []ContentLine {
	start := len(lines)
	for _, child := range it.Children {
		lines = flattenNode(child, level, lines)
	}
	for i := start + 1; i < len(lines); i++ {
		if lines[i].Level == level && level < maxLineLevel {
			lines[i].Level = level + 1
		}
	}
	return lines
}

func appendLine(lines []ContentLine, runs []slideparser.TextRun, level int, emphasis bool) []ContentLine {
	if strings.TrimSpace(slideparser.RunsText(runs)) == "" {
		return lines
	}
	return append(lines, ContentLine{Runs: runs, Level: level, Emphasis: emphasis})
}
