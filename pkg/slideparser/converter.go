package slideparser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/yockii/slide_stream/pkg/logger"
)

const defaultChartType = "horizontal-bar"

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// converter 把通用标签树转换为强类型的内容节点
type converter struct {
	dialect Dialect
	// mark 判断一段文本是否正在生成，为 nil 时不打标记
	mark func(string) bool
}

// convert 返回幻灯片以及单元节点，找不到单元节点时第二个返回值为 nil
func (c *converter) convert(root *XMLNode) (Slide, *XMLNode) {
	slide := Slide{Alignment: AlignCenter}
	unit := root.FindChild(c.dialect.UnitTag)
	if unit == nil {
		return slide, nil
	}
	c.applyUnitAttrs(&slide, unit)

	// 顶层图片全部从正文中移除，只取第一个作为根图片候选
	rootTaken := false
	slide.Content = c.blocks(unit, func(n *XMLNode) bool {
		if !n.Is("IMG") {
			return false
		}
		if !rootTaken {
			rootTaken = true
			slide.RootImage = rootImage(n)
		}
		return true
	})
	if slide.Content == nil {
		slide.Content = []Node{}
	}
	return slide, unit
}

func (c *converter) applyUnitAttrs(slide *Slide, unit *XMLNode) {
	if v := strings.TrimSpace(unit.Attrs.Value(c.dialect.LayoutAttr)); v != "" {
		layout := LayoutType(strings.ToLower(v))
		switch layout {
		case LayoutLeft, LayoutRight, LayoutVertical:
		default:
			logger.Warn("无效的布局类型，使用 left", logger.F("layout", v))
			layout = LayoutLeft
		}
		slide.LayoutType = &layout
	}

	switch a := Alignment(strings.ToLower(strings.TrimSpace(unit.Attrs.Value(c.dialect.AlignAttr)))); a {
	case AlignStart, AlignCenter, AlignEnd:
		slide.Alignment = a
	}

	slide.BackgroundColor = strings.TrimSpace(unit.Attrs.Value(c.dialect.BackgroundAttr))

	var width WidthClass
	switch strings.ToUpper(strings.TrimSpace(unit.Attrs.Value(c.dialect.WidthAttr))) {
	case "L", "WIDE":
		width = WidthWide
	case "M", "MEDIUM":
		width = WidthMedium
	}
	if width != "" {
		slide.WidthClass = &width
	}
}

func rootImage(n *XMLNode) *RootImage {
	src := strings.TrimSpace(n.Attrs.Value("src"))
	if !validImageURL(src) {
		return nil
	}
	return &RootImage{
		URL:          src,
		QueryHint:    strings.TrimSpace(n.Attrs.Value("query")),
		IsBackground: strings.EqualFold(strings.TrimSpace(n.Attrs.Value("background")), "true"),
		AltText:      n.Attrs.Value("alt"),
	}
}

func validImageURL(src string) bool {
	lower := strings.ToLower(src)
	return (strings.HasPrefix(lower, "http://") && len(src) > len("http://")) ||
		(strings.HasPrefix(lower, "https://") && len(src) > len("https://"))
}

// blocks 转换块级内容。散落的文本和行内标签合并为段落
func (c *converter) blocks(n *XMLNode, skip func(*XMLNode) bool) []Node {
	var out []Node
	var pending []TextRun
	flush := func() {
		runs := trimRuns(pending)
		pending = nil
		if len(runs) > 0 {
			out = append(out, &Paragraph{Runs: c.marked(runs)})
		}
	}

	pending = append(pending, TextRun{Text: n.Text})
	for _, ch := range n.Children {
		switch {
		case skip != nil && skip(ch):
		case isInline(ch.Tag):
			pending = append(pending, inlineRuns(ch)...)
		default:
			if node := c.node(ch); node != nil {
				flush()
				out = append(out, node)
			}
		}
		pending = append(pending, TextRun{Text: ch.Tail})
	}
	flush()
	return out
}

// node 每种节点一条规则
func (c *converter) node(n *XMLNode) Node {
	tag := strings.ToUpper(n.Tag)
	switch tag {
	case "H1", "H2", "H3", "H4", "H5", "H6":
		return &Heading{Level: int(tag[1] - '0'), Runs: c.leafRuns(n)}
	case "P":
		return &Paragraph{Runs: c.leafRuns(n)}
	case "IMG":
		return c.image(n)
	case "COLUMNS":
		return &Columns{Items: c.items(n, false)}
	case "BULLETS":
		return &Bullets{Items: c.items(n, false)}
	case "ICONS":
		return c.icons(n)
	case "CYCLE":
		return &Cycle{Items: c.items(n, false)}
	case "STAIRCASE":
		return &Staircase{Items: c.items(n, false)}
	case "CHART":
		return chart(n)
	case "ARROWS":
		return &VisualizationList{Visualization: VisualizationArrow, Items: c.items(n, true)}
	case "PYRAMID":
		return &VisualizationList{Visualization: VisualizationPyramid, Items: c.items(n, true)}
	case "TIMELINE":
		return &VisualizationList{Visualization: VisualizationTimeline, Items: c.items(n, true)}
	case "ICON":
		// 只在 ICONS 中有意义
		return nil
	default:
		return c.generic(n)
	}
}

// generic 未知标签：有内容时折叠为段落，单个子节点直接返回
func (c *converter) generic(n *XMLNode) Node {
	if len(n.Children) == 0 && strings.TrimSpace(n.Text) == "" {
		return nil
	}
	children := c.blocks(n, nil)
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	default:
		return &Paragraph{Children: children}
	}
}

func (c *converter) image(n *XMLNode) Node {
	src := strings.TrimSpace(n.Attrs.Value("src"))
	if !validImageURL(src) {
		return nil
	}
	return &Image{URL: src, Alt: n.Attrs.Value("alt"), Runs: []TextRun{{Text: ""}}}
}

// items 取直接子节点中的 DIV 作为列表项
func (c *converter) items(n *XMLNode, skipEmpty bool) []Item {
	items := []Item{}
	for _, ch := range n.Children {
		if !ch.Is("DIV") {
			continue
		}
		children := c.blocks(ch, nil)
		if skipEmpty && len(children) == 0 {
			continue
		}
		if children == nil {
			children = []Node{}
		}
		items = append(items, Item{Children: children})
	}
	return items
}

func (c *converter) icons(n *XMLNode) Node {
	list := &IconList{Items: []IconItem{}}
	for _, ch := range n.Children {
		if !ch.Is("DIV") {
			continue
		}
		var icon *Icon
		children := c.blocks(ch, func(x *XMLNode) bool {
			if !x.Is("ICON") {
				return false
			}
			if icon == nil {
				if q := c.iconQuery(x.Attrs.Value("query")); q != "" {
					icon = &Icon{Query: q}
				}
			}
			return true
		})
		if children == nil {
			children = []Node{}
		}
		list.Items = append(list.Items, IconItem{Icon: icon, Children: children})
	}
	return list
}

// iconQuery 截掉混进属性值里的标记残片，太短的查询词视为未完成
func (c *converter) iconQuery(raw string) string {
	cut := len(raw)
	for _, marker := range []string{"<", ">", c.dialect.UnitTag} {
		if i := strings.Index(raw, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	q := strings.TrimSpace(raw[:cut])
	if utf8.RuneCountInString(q) < 2 {
		return ""
	}
	return q
}

func chart(n *XMLNode) Node {
	ch := &Chart{ChartType: strings.TrimSpace(n.Attrs.Value("charttype")), Data: []ChartDatum{}}
	if ch.ChartType == "" {
		ch.ChartType = defaultChartType
	}
	table := n.FindChild("TABLE")
	if table == nil {
		return ch
	}
	for _, tr := range table.Children {
		if !tr.Is("TR") {
			continue
		}
		var d ChartDatum
		for _, td := range tr.Children {
			if !td.Is("TD") {
				continue
			}
			text := td.InnerText()
			if v := td.FindChild("VALUE"); v != nil {
				text = v.InnerText()
			}
			text = strings.TrimSpace(text)
			switch strings.ToLower(td.Attrs.Value("type")) {
			case "label":
				d.Label = text
			case "data":
				d.Value = parseNumber(text)
			}
		}
		ch.Data = append(ch.Data, d)
	}
	return ch
}

// parseNumber 取数字前缀，"12%" 得到 12，解析失败为 0
func parseNumber(s string) float64 {
	m := numericPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// leafRuns 叶子节点的文本。非行内标签被拍平成普通文本
func (c *converter) leafRuns(n *XMLNode) []TextRun {
	runs := []TextRun{{Text: n.Text}}
	for _, ch := range n.Children {
		if isInline(ch.Tag) {
			runs = append(runs, inlineRuns(ch)...)
		} else {
			runs = append(runs, TextRun{Text: ch.InnerText()})
		}
		runs = append(runs, TextRun{Text: ch.Tail})
	}
	runs = trimRuns(runs)
	if len(runs) == 0 {
		return []TextRun{{Text: ""}}
	}
	return c.marked(runs)
}

func (c *converter) marked(runs []TextRun) []TextRun {
	if c.mark == nil {
		return runs
	}
	for i := range runs {
		runs[i].Generating = c.mark(runs[i].Text)
	}
	return runs
}

func isInline(tag string) bool {
	switch strings.ToUpper(tag) {
	case "B", "STRONG", "I", "EM", "U", "S", "STRIKE":
		return true
	}
	return false
}

func inlineFlags(tag string) TextRun {
	switch strings.ToUpper(tag) {
	case "B", "STRONG":
		return TextRun{Bold: true}
	case "I", "EM":
		return TextRun{Italic: true}
	case "U":
		return TextRun{Underline: true}
	case "S", "STRIKE":
		return TextRun{Strikethrough: true}
	}
	return TextRun{}
}

// inlineRuns 行内标签嵌套时以最内层为准
func inlineRuns(n *XMLNode) []TextRun {
	base := inlineFlags(n.Tag)
	withText := func(s string) TextRun {
		r := base
		r.Text = s
		return r
	}
	runs := []TextRun{withText(n.Text)}
	for _, ch := range n.Children {
		if isInline(ch.Tag) {
			runs = append(runs, inlineRuns(ch)...)
		} else {
			runs = append(runs, withText(ch.InnerText()))
		}
		runs = append(runs, withText(ch.Tail))
	}
	return runs
}

// trimRuns 去掉空文本，并去掉首尾的空白
func trimRuns(runs []TextRun) []TextRun {
	out := make([]TextRun, 0, len(runs))
	for _, r := range runs {
		if r.Text != "" {
			out = append(out, r)
		}
	}
	for len(out) > 0 {
		out[0].Text = strings.TrimLeft(out[0].Text, " \t\r\n")
		if out[0].Text != "" {
			break
		}
		out = out[1:]
	}
	for len(out) > 0 {
		last := len(out) - 1
		out[last].Text = strings.TrimRight(out[last].Text, " \t\r\n")
		if out[last].Text != "" {
			break
		}
		out = out[:last]
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
