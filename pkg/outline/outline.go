// Package outline 处理模型生成的 Markdown 大纲，每个一级标题对应一页幻灯片
package outline

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var sectionPattern = regexp.MustCompile(`(?m)^# `)

var md = goldmark.New()

// Split 按行首的 "# " 切分大纲，每一项保留自己的标题行
// 大纲中没有一级标题时整体作为一项返回
func Split(markdown string) []string {
	if strings.TrimSpace(markdown) == "" {
		return nil
	}
	parts := sectionPattern.Split(markdown, -1)
	items := make([]string, 0, len(parts))
	for i, part := range parts {
		// 第一个标题之前的内容
		if i == 0 {
			if s := strings.TrimSpace(part); s != "" {
				items = append(items, s)
			}
			continue
		}
		if strings.TrimSpace(part) == "" {
			continue
		}
		items = append(items, strings.TrimSpace("# "+part))
	}
	if len(items) == 0 {
		return []string{strings.TrimSpace(markdown)}
	}
	return items
}

// Titles 提取所有一级标题的文本
func Titles(markdown string) []string {
	return Headings(markdown, 1)
}

// Headings 提取指定级别标题的纯文本
func Headings(markdown string, level int) []string {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var titles []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if h.Level == level {
			if t := strings.TrimSpace(inlineText(h, source)); t != "" {
				titles = append(titles, t)
			}
		}
		return ast.WalkSkipChildren, nil
	})
	return titles
}

// Normalize 把大纲项规整为提示词中使用的形式
func Normalize(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

func inlineText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}
