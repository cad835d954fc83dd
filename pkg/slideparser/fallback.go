package slideparser

import (
	"regexp"
	"strings"
)

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>?`)
	commentPattern = regexp.MustCompile(`(?s)<!--.*?(-->|$)`)
)

// fallbackSlide 单元无法正常解析时的兜底：去掉所有标签，剩余文本作为一个段落
func fallbackSlide(text string, ordinal *regexp.Regexp) (Slide, string) {
	slide := Slide{Alignment: AlignCenter, Content: []Node{}}
	if plain := stripTags(text); plain != "" {
		slide.Content = append(slide.Content, &Paragraph{Runs: []TextRun{{Text: plain}}})
	}
	return slide, fallbackFingerprint(text, ordinal)
}

func stripTags(text string) string {
	text = commentPattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

// ordinalPattern 从起始标签中匹配页码属性，每个解析器只编译一次
func ordinalPattern(d Dialect) *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(d.OrdinalAttr) + `\s*=\s*["']?([^"'\s>/]+)`)
}

// fallbackFingerprint 优先从起始标签中取页码
func fallbackFingerprint(text string, ordinal *regexp.Regexp) string {
	open := text
	if gt := strings.IndexByte(text, '>'); gt >= 0 {
		open = text[:gt+1]
	}
	if m := ordinal.FindStringSubmatch(open); m != nil {
		return ordinalPrefix + m[1]
	}
	return contentHash(text)
}
