package slideparser

import "strings"

// XMLNode 宽松解析得到的通用标签树节点
type XMLNode struct {
	Tag   string
	Attrs Attrs
	// Text 第一个子节点之前的文本
	Text string
	// Tail 本节点结束后、下一个兄弟节点之前的文本
	Tail     string
	Children []*XMLNode
	// Source 本节点在原文中对应的片段，包含开闭标签
	Source string
}

// Attrs 保持声明顺序的属性表，重复的键以最后一次为准
type Attrs struct {
	keys   []string
	values map[string]string
}

func (a *Attrs) Set(key, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.values[key] = value
}

// Get 先精确匹配，再忽略大小写匹配
func (a Attrs) Get(key string) (string, bool) {
	if v, ok := a.values[key]; ok {
		return v, true
	}
	for _, k := range a.keys {
		if strings.EqualFold(k, key) {
			return a.values[k], true
		}
	}
	return "", false
}

func (a Attrs) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

func (a Attrs) Keys() []string {
	out := make([]string, len(a.keys))
	copy(out, a.keys)
	return out
}

func (a Attrs) Len() int { return len(a.keys) }

// Is 判断标签名，忽略大小写
func (n *XMLNode) Is(tag string) bool {
	return strings.EqualFold(n.Tag, tag)
}

// InnerText 节点内全部文本（不含标签）
func (n *XMLNode) InnerText() string {
	var sb strings.Builder
	n.writeText(&sb)
	return sb.String()
}

func (n *XMLNode) writeText(sb *strings.Builder) {
	sb.WriteString(n.Text)
	for _, c := range n.Children {
		c.writeText(sb)
		sb.WriteString(c.Tail)
	}
}

// FindChild 返回第一个匹配标签的直接子节点
func (n *XMLNode) FindChild(tag string) *XMLNode {
	for _, c := range n.Children {
		if c.Is(tag) {
			return c
		}
	}
	return nil
}

func (n *XMLNode) appendText(s string) {
	if s == "" {
		return
	}
	if len(n.Children) == 0 {
		n.Text += s
		return
	}
	last := n.Children[len(n.Children)-1]
	last.Tail += s
}
