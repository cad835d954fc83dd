package slideparser

import "strings"

// Dialect 描述模型输出的标记方言，标签名统一使用大写
type Dialect struct {
	WrapperTag     string // 外层包裹标签，可选
	UnitTag        string // 幻灯片单元标签
	OrdinalAttr    string // 页码属性
	LayoutAttr     string
	AlignAttr      string
	BackgroundAttr string
	WidthAttr      string

	// ForceCloseTags 单元未闭合时，出现这些标签才允许强制闭合
	ForceCloseTags []string
	// VoidTags 永远自闭合的标签
	VoidTags []string
}

// DefaultDialect 默认方言
func DefaultDialect() Dialect {
	return Dialect{
		WrapperTag:     "PRESENTATION",
		UnitTag:        "SECTION",
		OrdinalAttr:    "page_number",
		LayoutAttr:     "layout",
		AlignAttr:      "align",
		BackgroundAttr: "bgColor",
		WidthAttr:      "width",
		ForceCloseTags: []string{
			"H1", "H2", "H3", "H4", "H5", "H6",
			"ARROWS", "PYRAMID", "TIMELINE", "CYCLE", "STAIRCASE", "CHART",
		},
		VoidTags: []string{"IMG", "ICON"},
	}
}

// normalized 补全缺省字段并统一大小写
func (d Dialect) normalized() Dialect {
	def := DefaultDialect()
	if d.WrapperTag == "" {
		d.WrapperTag = def.WrapperTag
	}
	if d.UnitTag == "" {
		d.UnitTag = def.UnitTag
	}
	if d.OrdinalAttr == "" {
		d.OrdinalAttr = def.OrdinalAttr
	}
	if d.LayoutAttr == "" {
		d.LayoutAttr = def.LayoutAttr
	}
	if d.AlignAttr == "" {
		d.AlignAttr = def.AlignAttr
	}
	if d.BackgroundAttr == "" {
		d.BackgroundAttr = def.BackgroundAttr
	}
	if d.WidthAttr == "" {
		d.WidthAttr = def.WidthAttr
	}
	if d.ForceCloseTags == nil {
		d.ForceCloseTags = def.ForceCloseTags
	}
	if d.VoidTags == nil {
		d.VoidTags = def.VoidTags
	}
	d.WrapperTag = strings.ToUpper(d.WrapperTag)
	d.UnitTag = strings.ToUpper(d.UnitTag)
	d.ForceCloseTags = upperAll(d.ForceCloseTags)
	d.VoidTags = upperAll(d.VoidTags)
	return d
}

func (d Dialect) unitStart() string { return "<" + d.UnitTag }
func (d Dialect) unitEnd() string   { return "</" + d.UnitTag + ">" }
func (d Dialect) wrapperStart() string {
	return "<" + d.WrapperTag
}

func (d Dialect) isVoid(tag string) bool {
	for _, v := range d.VoidTags {
		if strings.EqualFold(v, tag) {
			return true
		}
	}
	return false
}

func upperAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}
