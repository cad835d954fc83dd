package slideparser

import "strings"

// ShouldMark 判断文本是否就是流末尾正在输出的内容。
// 只依赖当前缓冲区内容，后续数据到达后会自动纠正。
func ShouldMark(candidate, tail string) bool {
	text := strings.TrimSpace(candidate)
	if text == "" {
		return false
	}
	pos := strings.LastIndex(tail, text)
	if pos < 0 {
		return false
	}
	end := pos + len(text)
	if end >= len(tail) {
		return true
	}
	after := strings.TrimSpace(tail[end:])
	return !strings.HasPrefix(after, "<")
}

// ClearMarks 返回去掉所有生成标记的副本，原切片及其节点树不受影响
func ClearMarks(slides []Slide) []Slide {
	if slides == nil {
		return nil
	}
	out := make([]Slide, len(slides))
	for i, s := range slides {
		out[i] = s
		out[i].Content = stripNodes(s.Content)
	}
	return out
}

// HasMarks 是否还有任何文本带着生成标记
func HasMarks(slides []Slide) bool {
	for _, s := range slides {
		for _, n := range s.Content {
			if nodeHasMark(n) {
				return true
			}
		}
	}
	return false
}

func stripNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = stripNode(n)
	}
	return out
}

func stripRuns(runs []TextRun) []TextRun {
	if runs == nil {
		return nil
	}
	out := make([]TextRun, len(runs))
	for i, r := range runs {
		r.Generating = false
		out[i] = r
	}
	return out
}

func stripItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Children: stripNodes(it.Children)}
	}
	return out
}

func stripNode(n Node) Node {
	switch v := n.(type) {
	case *Heading:
		return &Heading{Level: v.Level, Runs: stripRuns(v.Runs)}
	case *Paragraph:
		return &Paragraph{Runs: stripRuns(v.Runs), Children: stripNodes(v.Children)}
	case *Image:
		return &Image{URL: v.URL, Alt: v.Alt, Runs: stripRuns(v.Runs)}
	case *Columns:
		return &Columns{Items: stripItems(v.Items)}
	case *Bullets:
		return &Bullets{Items: stripItems(v.Items)}
	case *IconList:
		items := make([]IconItem, len(v.Items))
		for i, it := range v.Items {
			items[i] = IconItem{Icon: it.Icon, Children: stripNodes(it.Children)}
		}
		return &IconList{Items: items}
	case *Cycle:
		return &Cycle{Items: stripItems(v.Items)}
	case *Staircase:
		return &Staircase{Items: stripItems(v.Items)}
	case *VisualizationList:
		return &VisualizationList{Visualization: v.Visualization, Items: stripItems(v.Items)}
	default:
		// 图表没有文本
		return n
	}
}

func runsHaveMark(runs []TextRun) bool {
	for _, r := range runs {
		if r.Generating {
			return true
		}
	}
	return false
}

func itemsHaveMark(items []Item) bool {
	for _, it := range items {
		for _, c := range it.Children {
			if nodeHasMark(c) {
				return true
			}
		}
	}
	return false
}

func nodeHasMark(n Node) bool {
	switch v := n.(type) {
	case *Heading:
		return runsHaveMark(v.Runs)
	case *Paragraph:
		if runsHaveMark(v.Runs) {
			return true
		}
		for _, c := range v.Children {
			if nodeHasMark(c) {
				return true
			}
		}
	case *Image:
		return runsHaveMark(v.Runs)
	case *Columns:
		return itemsHaveMark(v.Items)
	case *Bullets:
		return itemsHaveMark(v.Items)
	case *IconList:
		for _, it := range v.Items {
			for _, c := range it.Children {
				if nodeHasMark(c) {
					return true
				}
			}
		}
	case *Cycle:
		return itemsHaveMark(v.Items)
	case *Staircase:
		return itemsHaveMark(v.Items)
	case *VisualizationList:
		return itemsHaveMark(v.Items)
	}
	return false
}
