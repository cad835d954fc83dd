package pptgen

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	"github.com/yockii/slide_stream/pkg/slideparser"
)

const (
	slideWidth  int64 = 9144000
	slideHeight int64 = 6858000

	imageRelID = "rId2"
	xmlHeader  = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
	nsDecl     = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
)

var colorPattern = regexp.MustCompile(`^#?([0-9A-Fa-f]{6})$`)

// box 形状的位置和大小，单位 EMU
type box struct {
	x, y, cx, cy int64
}

var (
	titleBox      = box{457200, 274638, 8229600, 1143000}
	bodyBox       = box{457200, 1600200, 8229600, 4525963}
	leftColumn    = box{457200, 1600200, 4038600, 4525963}
	rightColumn   = box{4648200, 1600200, 4038600, 4525963}
	coverTitleBox = box{685800, 2130425, 7772400, 1470025}
	coverSubBox   = box{1371600, 3886200, 6400000, 1752600}
	quoteBox      = box{1143000, 2286000, 6858000, 2286000}
)

// runStyle 一段文字的样式
type runStyle struct {
	size   int
	bold   bool
	italic bool
	color  string
	align  string
	bullet bool
}

// 生成幻灯片XML内容
func (g *PPTGenerator) generateSlideXML(slide SlideContent, config TemplateConfig) string {
	var b strings.Builder
	b.WriteString(xmlHeader)
	b.WriteString(`<p:sld ` + nsDecl + `><p:cSld>`)
	if bg := normalizeColor(slide.BackgroundColor); bg != "" {
		fmt.Fprintf(&b, `<p:bg><p:bgPr><a:solidFill><a:srgbClr val="%s"/></a:solidFill><a:effectLst/></p:bgPr></p:bg>`, bg)
	}
	b.WriteString(`<p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr>`)
	b.WriteString(`<p:grpSpPr><a:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/><a:chOff x="0" y="0"/><a:chExt cx="0" cy="0"/></a:xfrm></p:grpSpPr>`)

	w := shapeWriter{b: &b, font: config.FontFamily, theme: config.ThemeColor, nextID: 2}
	switch slide.Layout {
	case LayoutTitle:
		w.titleSlide(slide)
	case LayoutQuote:
		w.quoteSlide(slide)
	case LayoutThankYou:
		w.thankYouSlide(slide)
	case LayoutSubsection:
		w.subsectionSlide(slide)
	case LayoutTwoColumn:
		w.twoColumnSlide(slide)
	case LayoutImage:
		w.imageSlide(slide)
	default:
		w.contentSlide(slide)
	}

	b.WriteString(`</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`)
	return b.String()
}

// shapeWriter 依次写入形状，形状ID自动递增
type shapeWriter struct {
	b      *strings.Builder
	font   string
	theme  string
	nextID int
}

func (w *shapeWriter) titleSlide(slide SlideContent) {
	w.textShape("Title", coverTitleBox, w.plain(slide.Title, runStyle{size: 4400, bold: true, color: w.theme, align: "ctr"}))
	if slide.Subtitle != "" {
		w.textShape("Subtitle", coverSubBox, w.plain(slide.Subtitle, runStyle{size: 2400, align: "ctr"}))
	}
}

func (w *shapeWriter) contentSlide(slide SlideContent) {
	w.heading(slide.Title)
	w.textShape("Content", bodyBox, w.lines(slide.Content))
}

func (w *shapeWriter) quoteSlide(slide SlideContent) {
	w.textShape("Quote", quoteBox, w.plain("“"+slide.QuoteText+"”", runStyle{size: 3200, italic: true, align: "ctr"}))
}

func (w *shapeWriter) thankYouSlide(slide SlideContent) {
	w.textShape("ThankYou", coverTitleBox, w.plain(slide.Title, runStyle{size: 4800, bold: true, color: w.theme, align: "ctr"}))
}

func (w *shapeWriter) subsectionSlide(slide SlideContent) {
	if slide.ParentTitle != "" {
		w.textShape("ParentTitle", box{457200, 274638, 8229600, 685800}, w.plain(slide.ParentTitle, runStyle{size: 2000, italic: true}))
	}
	w.textShape("Subtitle", box{457200, 914400, 8229600, 914400}, w.plain(slide.Subtitle, runStyle{size: 3200, bold: true, color: w.theme}))
	w.textShape("Content", bodyBox, w.lines(slide.Content))
}

func (w *shapeWriter) twoColumnSlide(slide SlideContent) {
	w.heading(slide.Title)
	if slide.ImageURL == "" {
		w.textShape("LeftColumn", leftColumn, w.lines(slide.LeftColumn))
		w.textShape("RightColumn", rightColumn, w.lines(slide.RightColumn))
		return
	}
	imageBox, textBox := rightColumn, leftColumn
	if slide.ImageOnLeft {
		imageBox, textBox = leftColumn, rightColumn
	}
	w.picture(slide.ImageAlt, imageBox)
	w.textShape("Content", textBox, w.lines(slide.Content))
}

func (w *shapeWriter) imageSlide(slide SlideContent) {
	if slide.Title == "" {
		w.picture(slide.ImageAlt, box{0, 0, slideWidth, slideHeight})
		return
	}
	w.heading(slide.Title)
	w.picture(slide.ImageAlt, bodyBox)
}

func (w *shapeWriter) heading(title string) {
	if title == "" {
		return
	}
	w.textShape("Title", titleBox, w.plain(title, runStyle{size: 3600, bold: true, color: w.theme}))
}

func (w *shapeWriter) textShape(name string, at box, paragraphs string) {
	if paragraphs == "" {
		paragraphs = `<a:p><a:endParaRPr lang="zh-CN" dirty="0"/></a:p>`
	}
	fmt.Fprintf(w.b, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`, w.nextID, name)
	fmt.Fprintf(w.b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`, at.x, at.y, at.cx, at.cy)
	fmt.Fprintf(w.b, `<p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>%s</p:txBody></p:sp>`, paragraphs)
	w.nextID++
}

func (w *shapeWriter) picture(alt string, at box) {
	fmt.Fprintf(w.b, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="Picture %d" descr="%s"/><p:cNvPicPr><a:picLocks noChangeAspect="1"/></p:cNvPicPr><p:nvPr/></p:nvPicPr>`, w.nextID, w.nextID, escapeAttr(alt))
	fmt.Fprintf(w.b, `<p:blipFill><a:blip r:link="%s"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`, imageRelID)
	fmt.Fprintf(w.b, `<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`, at.x, at.y, at.cx, at.cy)
	w.nextID++
}

// plain 单段纯文本
func (w *shapeWriter) plain(text string, style runStyle) string {
	return w.paragraph([]slideparser.TextRun{{Text: text}}, 0, style)
}

// lines 带项目符号的多行正文
func (w *shapeWriter) lines(lines []ContentLine) string {
	var b strings.Builder
	for _, l := range lines {
		style := runStyle{size: 2400, bullet: true, bold: l.Emphasis}
		if l.Level > 0 {
			style.size = 2000
		}
		b.WriteString(w.paragraph(l.Runs, l.Level, style))
	}
	return b.String()
}

func (w *shapeWriter) paragraph(runs []slideparser.TextRun, level int, style runStyle) string {
	var b strings.Builder
	b.WriteString(`<a:p>`)
	if style.bullet {
		marL := 342900 + int64(level)*457200
		fmt.Fprintf(&b, `<a:pPr marL="%d" lvl="%d" indent="-342900"><a:buChar char="•"/></a:pPr>`, marL, level)
	} else if style.align != "" {
		fmt.Fprintf(&b, `<a:pPr algn="%s"><a:buNone/></a:pPr>`, style.align)
	}
	for _, r := range runs {
		if r.Text == "" {
			continue
		}
		b.WriteString(`<a:r><a:rPr lang="zh-CN"`)
		fmt.Fprintf(&b, ` sz="%d"`, style.size)
		if style.bold || r.Bold {
			b.WriteString(` b="1"`)
		}
		if style.italic || r.Italic {
			b.WriteString(` i="1"`)
		}
		if r.Underline {
			b.WriteString(` u="sng"`)
		}
		if r.Strikethrough {
			b.WriteString(` strike="sngStrike"`)
		}
		b.WriteString(` dirty="0">`)
		if style.color != "" {
			fmt.Fprintf(&b, `<a:solidFill><a:srgbClr val="%s"/></a:solidFill>`, style.color)
		}
		if w.font != "" {
			fmt.Fprintf(&b, `<a:latin typeface="%s"/><a:ea typeface="%s"/>`, escapeAttr(w.font), escapeAttr(w.font))
		}
		fmt.Fprintf(&b, `</a:rPr><a:t>%s</a:t></a:r>`, escapeText(r.Text))
	}
	b.WriteString(`</a:p>`)
	return b.String()
}

// escapeText 转义文本节点内容
func escapeText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// escapeAttr 转义属性值，EscapeText 同样处理了引号
func escapeAttr(s string) string {
	return escapeText(s)
}

// normalizeColor 把 #RRGGBB 转换为 OOXML 使用的 RRGGBB，无法识别时返回空
func normalizeColor(s string) string {
	m := colorPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
