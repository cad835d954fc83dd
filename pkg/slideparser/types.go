package slideparser

import "strings"

// LayoutType 根图片相对正文的位置
type LayoutType string

const (
	LayoutLeft     LayoutType = "left"
	LayoutRight    LayoutType = "right"
	LayoutVertical LayoutType = "vertical"
)

// Alignment 正文对齐方式
type Alignment string

const (
	AlignStart  Alignment = "start"
	AlignCenter Alignment = "center"
	AlignEnd    Alignment = "end"
)

// WidthClass 幻灯片宽度
type WidthClass string

const (
	WidthWide   WidthClass = "wide"
	WidthMedium WidthClass = "medium"
)

// VisualizationKind 可视化列表的类型
type VisualizationKind string

const (
	VisualizationArrow    VisualizationKind = "arrow"
	VisualizationPyramid  VisualizationKind = "pyramid"
	VisualizationTimeline VisualizationKind = "timeline"
)

// Document 当前已解析的整份演示文稿，按首次出现顺序排列
type Document []Slide

// Slide 单张幻灯片
type Slide struct {
	ID              string      `json:"id"`
	Content         []Node      `json:"content"`
	RootImage       *RootImage  `json:"rootImage,omitempty"`
	LayoutType      *LayoutType `json:"layoutType,omitempty"`
	Alignment       Alignment   `json:"alignment"`
	BackgroundColor string      `json:"bgColor,omitempty"`
	WidthClass      *WidthClass `json:"width,omitempty"`
}

// RootImage 直接声明在幻灯片下的图片
type RootImage struct {
	URL          string `json:"url"`
	QueryHint    string `json:"query"`
	IsBackground bool   `json:"background"`
	AltText      string `json:"alt"`
}

// TextRun 一段带格式的文本
type TextRun struct {
	Text          string `json:"text"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`
	// Generating 仅用于界面上的打字效果，定稿后不会出现
	Generating bool `json:"generating,omitempty"`
}

// NodeKind 内容节点类型
type NodeKind string

const (
	KindHeading       NodeKind = "heading"
	KindParagraph     NodeKind = "paragraph"
	KindImage         NodeKind = "image"
	KindColumns       NodeKind = "columns"
	KindBullets       NodeKind = "bullets"
	KindIconList      NodeKind = "icons"
	KindCycle         NodeKind = "cycle"
	KindStaircase     NodeKind = "staircase"
	KindChart         NodeKind = "chart"
	KindVisualization NodeKind = "visualization"
)

// Node 内容节点。只有本包内的类型可以实现该接口
type Node interface {
	Kind() NodeKind
	node()
}

type Heading struct {
	Level int       `json:"level"`
	Runs  []TextRun `json:"runs"`
}

// Paragraph 段落。Children 只在未知标签被包装为段落时使用
type Paragraph struct {
	Runs     []TextRun `json:"runs,omitempty"`
	Children []Node    `json:"children,omitempty"`
}

type Image struct {
	URL  string    `json:"url"`
	Alt  string    `json:"alt,omitempty"`
	Runs []TextRun `json:"runs"`
}

// Item 容器中的一项（DIV）
type Item struct {
	Children []Node `json:"children"`
}

type Columns struct {
	Items []Item `json:"items"`
}

type Bullets struct {
	Items []Item `json:"items"`
}

type Icon struct {
	Query string `json:"query"`
}

type IconItem struct {
	Icon     *Icon  `json:"icon,omitempty"`
	Children []Node `json:"children"`
}

type IconList struct {
	Items []IconItem `json:"items"`
}

type Cycle struct {
	Items []Item `json:"items"`
}

type Staircase struct {
	Items []Item `json:"items"`
}

type ChartDatum struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type Chart struct {
	ChartType string       `json:"chartType"`
	Data      []ChartDatum `json:"data"`
}

type VisualizationList struct {
	Visualization VisualizationKind `json:"visualizationType"`
	Items         []Item            `json:"items"`
}

func (*Heading) Kind() NodeKind           { return KindHeading }
func (*Paragraph) Kind() NodeKind         { return KindParagraph }
func (*Image) Kind() NodeKind             { return KindImage }
func (*Columns) Kind() NodeKind           { return KindColumns }
func (*Bullets) Kind() NodeKind           { return KindBullets }
func (*IconList) Kind() NodeKind          { return KindIconList }
func (*Cycle) Kind() NodeKind             { return KindCycle }
func (*Staircase) Kind() NodeKind         { return KindStaircase }
func (*Chart) Kind() NodeKind             { return KindChart }
func (*VisualizationList) Kind() NodeKind { return KindVisualization }

func (*Heading) node()           {}
func (*Paragraph) node()         {}
func (*Image) node()             {}
func (*Columns) node()           {}
func (*Bullets) node()           {}
func (*IconList) node()          {}
func (*Cycle) node()             {}
func (*Staircase) node()         {}
func (*Chart) node()             {}
func (*VisualizationList) node() {}

// RunsText 拼接文本
func RunsText(runs []TextRun) string {
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.Text...)
	}
	return string(b)
}

// PlainText 返回节点下所有文本，块之间以换行分隔
func PlainText(n Node) string {
	var parts []string
	walkText(n, func(s string) {
		if s != "" {
			parts = append(parts, s)
		}
	})
	return strings.Join(parts, "\n")
}

func walkText(n Node, fn func(string)) {
	switch v := n.(type) {
	case *Heading:
		fn(RunsText(v.Runs))
	case *Paragraph:
		fn(RunsText(v.Runs))
		for _, c := range v.Children {
			walkText(c, fn)
		}
	case *Image:
		fn(v.Alt)
	case *Columns:
		walkItems(v.Items, fn)
	case *Bullets:
		walkItems(v.Items, fn)
	case *IconList:
		for _, it := range v.Items {
			for _, c := range it.Children {
				walkText(c, fn)
			}
		}
	case *Cycle:
		walkItems(v.Items, fn)
	case *Staircase:
		walkItems(v.Items, fn)
	case *Chart:
		for _, d := range v.Data {
			fn(d.Label)
		}
	case *VisualizationList:
		walkItems(v.Items, fn)
	}
}

func walkItems(items []Item, fn func(string)) {
	for _, it := range items {
		for _, c := range it.Children {
			walkText(c, fn)
		}
	}
}
