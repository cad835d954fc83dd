package slideparser

import (
	"bytes"
	"strings"
)

type unitState int

const (
	// 有结束标记的完整单元
	unitComplete unitState = iota
	// 下一个单元已经开始，补上结束标记强制闭合
	unitForced
	// 末尾仍在输出的单元，只用于预览，不消费缓冲区
	unitOpen
)

// wrapper 起始标记需要出现在缓冲区开头的这个范围内
const wrapperWindow = 10

// wrapper 之后的注释需要在这个范围内开始
const commentWindow = 20

type rawUnit struct {
	text  string
	start int // 在整个输入流中的偏移
	state unitState
}

// extractor 从缓冲区中切出幻灯片单元
type extractor struct {
	dialect Dialect
	// eager 为 true 时，下一个单元开始就强制闭合当前单元，不要求内容标记
	eager       bool
	wrapperDone bool
}

// scan 返回切出的单元以及可以从缓冲区开头丢弃的字节数。
// final 为 true 时剩余内容全部强制闭合。
func (e *extractor) scan(buf []byte, base int, final bool) ([]rawUnit, int) {
	pos := 0
	if !e.wrapperDone {
		skip, ok := e.skipWrapper(buf, final)
		if !ok {
			return nil, 0
		}
		pos = skip
	}
	consumed := pos

	startTok := []byte(e.dialect.unitStart())
	endTok := []byte(e.dialect.unitEnd())
	var units []rawUnit
	for {
		s := e.findStart(buf, pos)
		if s < 0 {
			break
		}
		end := -1
		if i := bytes.Index(buf[s:], endTok); i >= 0 {
			end = s + i
		}
		next := e.findStart(buf, s+len(startTok))

		if end >= 0 && (next < 0 || end < next) {
			stop := end + len(endTok)
			units = append(units, rawUnit{text: string(buf[s:stop]), start: base + s, state: unitComplete})
			pos, consumed = stop, stop
			continue
		}

		if next >= 0 {
			part := buf[s:next]
			if !final && !e.eager && !e.hasContentMarker(part) {
				// 没有任何内容，等待更多输入
				break
			}
			units = append(units, rawUnit{text: string(part) + e.dialect.unitEnd(), start: base + s, state: unitForced})
			pos, consumed = next, next
			continue
		}

		part := buf[s:]
		if final {
			units = append(units, rawUnit{text: string(part) + e.dialect.unitEnd(), start: base + s, state: unitForced})
		} else if e.hasContentMarker(part) {
			units = append(units, rawUnit{text: trimPartialTag(string(part)) + e.dialect.unitEnd(), start: base + s, state: unitOpen})
		}
		break
	}

	if final {
		consumed = len(buf)
	}
	return units, consumed
}

// skipWrapper 跳过开头的外层包裹标签以及紧随其后的注释，只执行一次。
// 第二个返回值为 false 表示还需要更多输入才能判断。
func (e *extractor) skipWrapper(buf []byte, final bool) (int, bool) {
	wrapper := e.findMarker(buf, 0, e.dialect.wrapperStart())
	first := e.findStart(buf, 0)
	if wrapper < 0 || wrapper >= wrapperWindow || (first >= 0 && first < wrapper) {
		if first >= 0 || final {
			e.wrapperDone = true
			return 0, true
		}
		return 0, false
	}

	gt := bytes.IndexByte(buf[wrapper:], '>')
	if gt < 0 {
		if final {
			e.wrapperDone = true
			return 0, true
		}
		return 0, false
	}
	pos := wrapper + gt + 1

	c := bytes.Index(buf[pos:], []byte("<!--"))
	switch {
	case c >= 0 && c < commentWindow:
		ce := bytes.Index(buf[pos+c:], []byte("-->"))
		if ce >= 0 {
			pos += c + ce + len("-->")
		} else if !final {
			return 0, false
		}
	case c < 0 && len(buf)-pos < commentWindow && !final:
		// 注释可能还没写出来
		if next := e.findStart(buf, pos); next < 0 {
			return 0, false
		}
	}
	e.wrapperDone = true
	return pos, true
}

// findStart 查找精确的单元起始标记，标记后必须是空白、'>' 或 '/'
func (e *extractor) findStart(buf []byte, from int) int {
	return e.findMarker(buf, from, e.dialect.unitStart())
}

func (e *extractor) findMarker(buf []byte, from int, marker string) int {
	tok := []byte(marker)
	for from < len(buf) {
		i := bytes.Index(buf[from:], tok)
		if i < 0 {
			return -1
		}
		at := from + i
		after := at + len(tok)
		if after >= len(buf) {
			// 标记在末尾，还无法判断
			return -1
		}
		if c := buf[after]; isSpace(c) || c == '>' || c == '/' {
			return at
		}
		from = at + 1
	}
	return -1
}

// hasContentMarker 是否包含任意一个允许强制闭合的内容标签
func (e *extractor) hasContentMarker(part []byte) bool {
	for _, tag := range e.dialect.ForceCloseTags {
		if e.findMarker(part, 0, "<"+tag) >= 0 {
			return true
		}
	}
	return false
}

// trimPartialTag 去掉末尾还没写完的标签
func trimPartialTag(s string) string {
	lt := strings.LastIndexByte(s, '<')
	if lt < 0 {
		return s
	}
	if strings.IndexByte(s[lt:], '>') >= 0 {
		return s
	}
	return s[:lt]
}
