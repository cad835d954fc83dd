package slideparser

import (
	"regexp"
	"strings"

	"github.com/yockii/slide_stream/pkg/logger"
)

// Parser 流式幻灯片解析器。
// 不是并发安全的，每个实例只能由一个 goroutine 按片段到达顺序调用。
type Parser struct {
	dialect  Dialect
	maxDepth int
	eager    bool
	registry Registry
	newID    IDGenerator
	ordinal  *regexp.Regexp

	acc       accumulator
	ext       extractor
	slides    []Slide
	index     map[string]int
	starts    map[string]int // ID -> 单元在输入流中的起始偏移
	open      *openUnit
	fed       bool
	finalized bool
}

// openUnit 末尾仍在输出的单元，按它在输入流中的起始偏移识别
type openUnit struct {
	start       int
	id          string
	fingerprint string
}

type Option func(*Parser)

func WithDialect(d Dialect) Option {
	return func(p *Parser) { p.dialect = d }
}

// WithRegistry 注入指纹映射表，可以在多次生成之间共享
func WithRegistry(r Registry) Option {
	return func(p *Parser) { p.registry = r }
}

func WithIDGenerator(gen IDGenerator) Option {
	return func(p *Parser) {
		if gen != nil {
			p.newID = gen
		}
	}
}

func WithMaxDepth(depth int) Option {
	return func(p *Parser) {
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// WithEagerForceClose 下一个单元开始时总是强制闭合前一个单元，即使它还没有内容标签
func WithEagerForceClose(eager bool) Option {
	return func(p *Parser) { p.eager = eager }
}

func New(opts ...Option) *Parser {
	p := &Parser{
		dialect:  DefaultDialect(),
		maxDepth: DefaultMaxDepth,
		newID:    NewXID,
		index:    make(map[string]int),
		starts:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.dialect = p.dialect.normalized()
	if p.registry == nil {
		p.registry = NewMemoryRegistry()
	}
	p.ordinal = ordinalPattern(p.dialect)
	p.ext = extractor{dialect: p.dialect, eager: p.eager}
	return p
}

// Feed 追加一段输入，返回本次新增或更新的幻灯片
func (p *Parser) Feed(fragment string) []Slide {
	if p.finalized {
		return []Slide{}
	}
	p.fed = true
	p.acc.append(fragment)

	// 标记判断使用追加后、截断前的完整缓冲区
	tail := p.acc.String()
	units, consumed := p.ext.scan(p.acc.buf, p.acc.base, false)
	p.acc.consume(consumed)

	return p.process(units, func(s string) bool {
		return ShouldMark(s, tail)
	})
}

// Finalize 强制闭合剩余内容并清除所有生成标记。再次调用返回空结果
func (p *Parser) Finalize() []Slide {
	if p.finalized || !p.fed {
		return []Slide{}
	}
	p.finalized = true

	units, _ := p.ext.scan(p.acc.buf, p.acc.base, true)
	p.acc.consume(p.acc.Len())
	deltas := p.process(units, nil)
	p.open = nil

	p.ClearAllGeneratingMarks()
	return ClearMarks(deltas)
}

// GetAllSlides 当前全部幻灯片，按首次出现顺序
func (p *Parser) GetAllSlides() Document {
	out := make(Document, len(p.slides))
	copy(out, p.slides)
	return out
}

// ClearAllGeneratingMarks 清除所有生成标记，可重复调用
func (p *Parser) ClearAllGeneratingMarks() {
	if HasMarks(p.slides) {
		p.slides = ClearMarks(p.slides)
	}
}

// Reset 清空缓冲区和已解析的幻灯片，指纹映射保留
func (p *Parser) Reset() {
	p.acc.reset()
	p.ext.wrapperDone = false
	p.slides = nil
	p.index = make(map[string]int)
	p.starts = make(map[string]int)
	p.open = nil
	p.fed = false
	p.finalized = false
}

// ClearIdentities 清空指纹映射，之后相同的内容会得到新的 ID
func (p *Parser) ClearIdentities() {
	p.registry.Clear()
}

func (p *Parser) Registry() Registry {
	return p.registry
}

// Buffered 尚未消费的字节数
func (p *Parser) Buffered() int {
	return p.acc.Len()
}

// ParseDocument 一次性解析完整的标记文本
func ParseDocument(text string, opts ...Option) Document {
	p := New(opts...)
	p.Feed(text)
	p.Finalize()
	return p.GetAllSlides()
}

func (p *Parser) process(units []rawUnit, mark func(string) bool) []Slide {
	deltas := make([]Slide, 0, len(units))
	seen := make(map[string]int, len(units))
	for _, u := range units {
		slide := p.build(u, mark)
		if i, ok := seen[slide.ID]; ok {
			deltas[i] = slide
			continue
		}
		seen[slide.ID] = len(deltas)
		deltas = append(deltas, slide)
	}
	return deltas
}

func (p *Parser) build(u rawUnit, mark func(string) bool) Slide {
	slide, fingerprint := p.convertUnit(u.text, mark)
	if fingerprint == "" {
		slide.ID = p.newID()
	} else {
		slide.ID = p.identify(u, fingerprint)
	}
	if _, ok := p.starts[slide.ID]; !ok {
		p.starts[slide.ID] = u.start
	}
	p.merge(slide)
	return slide
}

// convertUnit 单个单元的解析或转换失败时退回到纯文本
func (p *Parser) convertUnit(text string, mark func(string) bool) (slide Slide, fingerprint string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("幻灯片转换异常，使用文本兜底", logger.F("panic", r))
			slide, fingerprint = fallbackSlide(text, p.ordinal)
		}
	}()

	root, err := ParseTree(text, p.dialect, p.maxDepth)
	if err != nil {
		logger.Warn("幻灯片解析失败，使用文本兜底", logger.F("err", err.Error()))
		return fallbackSlide(text, p.ordinal)
	}
	c := converter{dialect: p.dialect, mark: mark}
	slide, unit := c.convert(root)
	if unit == nil {
		return slide, ""
	}
	return slide, Fingerprint(unit, p.dialect)
}

// identify 末尾单元还在输出时指纹可能变化（例如标题逐字出现）。
// 输出中的单元只按起始偏移绑定一个临时 ID，闭合后才用最终指纹登记；
// 页码指纹出现时已经完整，直接登记
func (p *Parser) identify(u rawUnit, fingerprint string) string {
	if p.open != nil && p.open.start == u.start {
		id := p.open.id
		if u.state == unitOpen {
			p.open.fingerprint = fingerprint
			return id
		}
		p.open = nil
		return p.settle(id, u.start, fingerprint)
	}

	var id string
	if u.state == unitOpen && !isOrdinal(fingerprint) {
		id = p.newID()
	} else {
		id = p.claim(u.start, fingerprint)
	}
	if u.state == unitOpen {
		p.open = &openUnit{start: u.start, id: id, fingerprint: fingerprint}
	}
	return id
}

// claim 查找或生成指纹对应的 ID。
// 已被本文档中另一个单元占用的 ID 不会复用，避免覆盖不同的幻灯片
func (p *Parser) claim(start int, fingerprint string) string {
	id, ok := p.registry.Lookup(fingerprint)
	if ok && p.available(id, start, fingerprint) {
		return id
	}
	fresh := p.newID()
	if !ok {
		p.registry.Store(fingerprint, fresh)
	}
	return fresh
}

// settle 输出中的单元闭合时，把临时 ID 换成最终指纹对应的 ID
func (p *Parser) settle(provisional string, start int, fingerprint string) string {
	existing, ok := p.registry.Lookup(fingerprint)
	switch {
	case !ok:
		p.registry.Store(fingerprint, provisional)
		return provisional
	case existing == provisional:
		return provisional
	case p.available(existing, start, fingerprint):
		p.retire(provisional, existing)
		return existing
	default:
		return provisional
	}
}

// available 页码相同即为同一张幻灯片；其它指纹只有在 ID 未被别的单元使用时才能复用
func (p *Parser) available(id string, start int, fingerprint string) bool {
	if isOrdinal(fingerprint) {
		return true
	}
	s, used := p.starts[id]
	return !used || s == start
}

func isOrdinal(fingerprint string) bool {
	return strings.HasPrefix(fingerprint, ordinalPrefix)
}

// retire 预览时使用的临时 ID 被已知 ID 取代
func (p *Parser) retire(stale, successor string) {
	i, ok := p.index[stale]
	if !ok {
		return
	}
	delete(p.index, stale)
	start, hasStart := p.starts[stale]
	delete(p.starts, stale)
	if _, exists := p.index[successor]; !exists {
		p.slides[i].ID = successor
		p.index[successor] = i
		if hasStart {
			p.starts[successor] = start
		}
		return
	}
	// 只有页码重复时才会走到这里，按同一张幻灯片合并
	p.slides = append(p.slides[:i], p.slides[i+1:]...)
	for j := i; j < len(p.slides); j++ {
		p.index[p.slides[j].ID] = j
	}
}

func (p *Parser) merge(slide Slide) {
	if i, ok := p.index[slide.ID]; ok {
		p.slides[i] = slide
		return
	}
	p.index[slide.ID] = len(p.slides)
	p.slides = append(p.slides, slide)
}
