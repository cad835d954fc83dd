package slideparser

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultMaxDepth 标签树的最大嵌套深度
const DefaultMaxDepth = 64

const rootTag = "#root"

// ErrTooDeep 嵌套超过上限，调用方应改用粗粒度的文本兜底
var ErrTooDeep = errors.New("slideparser: markup nested too deep")

type treeParser struct {
	src      string
	pos      int
	maxDepth int
	dialect  Dialect
	open     []string
}

// ParseTree 把一段标记解析成以合成根节点为根的标签树。
// 截断、未闭合标签、不匹配的闭合标签都不会报错，唯一的错误是嵌套过深。
func ParseTree(src string, d Dialect, maxDepth int) (*XMLNode, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &treeParser{src: src, maxDepth: maxDepth, dialect: d.normalized()}
	root := &XMLNode{Tag: rootTag, Source: src}
	if err := p.parseInto(root, 0); err != nil {
		return nil, err
	}
	return root, nil
}

// parseInto 解析 parent 的内容，直到遇到它自己的闭合标签、某个祖先的闭合标签或输入结束
func (p *treeParser) parseInto(parent *XMLNode, depth int) error {
	for p.pos < len(p.src) {
		rest := p.src[p.pos:]
		lt := strings.IndexByte(rest, '<')
		if lt < 0 {
			parent.appendText(rest)
			p.pos = len(p.src)
			return nil
		}
		if lt > 0 {
			parent.appendText(rest[:lt])
			p.pos += lt
			rest = rest[lt:]
		}

		switch {
		case strings.HasPrefix(rest, "<!--"):
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				p.pos = len(p.src)
				return nil
			}
			p.pos += 4 + end + 3
		case strings.HasPrefix(rest, "<!"), strings.HasPrefix(rest, "<?"):
			gt := strings.IndexByte(rest, '>')
			if gt < 0 {
				p.pos = len(p.src)
				return nil
			}
			p.pos += gt + 1
		case strings.HasPrefix(rest, "</"):
			gt := strings.IndexByte(rest, '>')
			if gt < 0 {
				parent.appendText(rest)
				p.pos = len(p.src)
				return nil
			}
			name := strings.TrimSpace(rest[2:gt])
			if strings.EqualFold(name, parent.Tag) {
				p.pos += gt + 1
				return nil
			}
			if p.closesAncestor(name) {
				// 当前节点缺少闭合标签，由外层消费这个闭合标签
				return nil
			}
			p.pos += gt + 1
		case len(rest) < 2 || !isNameStart(rest[1]):
			parent.appendText("<")
			p.pos++
		default:
			if err := p.parseElement(parent, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *treeParser) parseElement(parent *XMLNode, depth int) error {
	start := p.pos
	end, ok := p.tagEnd(start)
	if !ok {
		// 输入末尾的半截标签按文本处理
		parent.appendText(p.src[start:])
		p.pos = len(p.src)
		return nil
	}

	inner := p.src[start+1 : end]
	selfClosing := strings.HasSuffix(strings.TrimSpace(inner), "/")
	name, attrs := parseTagBody(inner)
	node := &XMLNode{Tag: name, Attrs: attrs}
	parent.Children = append(parent.Children, node)
	p.pos = end + 1

	if !selfClosing && !p.dialect.isVoid(name) {
		if depth+1 > p.maxDepth {
			return fmt.Errorf("%w: limit %d", ErrTooDeep, p.maxDepth)
		}
		p.open = append(p.open, name)
		err := p.parseInto(node, depth+1)
		p.open = p.open[:len(p.open)-1]
		if err != nil {
			return err
		}
	}
	node.Source = p.src[start:p.pos]
	return nil
}

// closesAncestor 栈顶是当前节点，只检查它的祖先
func (p *treeParser) closesAncestor(name string) bool {
	for i := len(p.open) - 2; i >= 0; i-- {
		if strings.EqualFold(p.open[i], name) {
			return true
		}
	}
	return false
}

// tagEnd 找到标签结束的 '>'，引号内的 '>' 不算
func (p *treeParser) tagEnd(start int) (int, bool) {
	var quote byte
	afterEq := false
	for i := start + 1; i < len(p.src); i++ {
		c := p.src[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch {
		case c == '>':
			return i, true
		case c == '=':
			afterEq = true
		case (c == '"' || c == '\'') && afterEq:
			quote = c
			afterEq = false
		case isSpace(c):
		default:
			afterEq = false
		}
	}
	return -1, false
}

func parseTagBody(inner string) (string, Attrs) {
	body := strings.TrimSuffix(strings.TrimSpace(inner), "/")
	i := 0
	for i < len(body) && !isSpace(body[i]) && body[i] != '/' && body[i] != '<' {
		i++
	}
	return body[:i], parseAttrs(body[i:])
}

// parseAttrs 解析 name=value 形式的属性，格式不对的直接跳过
func parseAttrs(s string) Attrs {
	var attrs Attrs
	i := 0
	for i < len(s) {
		for i < len(s) && (isSpace(s[i]) || s[i] == '/') {
			i++
		}
		if i >= len(s) {
			break
		}
		keyStart := i
		for i < len(s) && s[i] != '=' && s[i] != '/' && !isSpace(s[i]) {
			i++
		}
		key := s[keyStart:i]

		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		if j >= len(s) || s[j] != '=' {
			if i == keyStart {
				i++
			}
			continue
		}
		j++
		for j < len(s) && isSpace(s[j]) {
			j++
		}

		var val string
		if j < len(s) && (s[j] == '"' || s[j] == '\'') {
			q := s[j]
			end := strings.IndexByte(s[j+1:], q)
			if end < 0 {
				val = s[j+1:]
				j = len(s)
			} else {
				val = s[j+1 : j+1+end]
				j += end + 2
			}
		} else {
			k := j
			for k < len(s) && !isSpace(s[k]) {
				k++
			}
			val = s[j:k]
			j = k
		}
		if key != "" {
			attrs.Set(key, val)
		}
		i = j
	}
	return attrs
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
