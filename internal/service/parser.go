package service

import (
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

// ParserDialect 由 parser.dialect.* 覆盖默认方言
func ParserDialect() slideparser.Dialect {
	d := slideparser.DefaultDialect()
	if v := config.GetString("parser.dialect.wrapper_tag"); v != "" {
		d.WrapperTag = v
	}
	if v := config.GetString("parser.dialect.unit_tag"); v != "" {
		d.UnitTag = v
	}
	if v := config.GetString("parser.dialect.ordinal_attr"); v != "" {
		d.OrdinalAttr = v
	}
	if v := config.GetString("parser.dialect.layout_attr"); v != "" {
		d.LayoutAttr = v
	}
	if v := config.GetString("parser.dialect.align_attr"); v != "" {
		d.AlignAttr = v
	}
	if v := config.GetString("parser.dialect.background_attr"); v != "" {
		d.BackgroundAttr = v
	}
	if v := config.GetString("parser.dialect.width_attr"); v != "" {
		d.WidthAttr = v
	}
	if v := config.GetStringSlice("parser.dialect.force_close_tags"); len(v) > 0 {
		d.ForceCloseTags = v
	}
	return d
}

// NewParser 按配置创建解析器，opts 在配置之后生效
func NewParser(opts ...slideparser.Option) *slideparser.Parser {
	base := []slideparser.Option{
		slideparser.WithDialect(ParserDialect()),
		slideparser.WithMaxDepth(config.GetInt("parser.max_depth")),
		slideparser.WithEagerForceClose(config.GetBool("parser.eager_force_close")),
	}
	return slideparser.New(append(base, opts...)...)
}
