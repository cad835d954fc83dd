package slideparser

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rs/xid"
	"golang.org/x/text/unicode/norm"
)

// Registry 指纹到幻灯片 ID 的映射。解析器重置后仍然保留，由调用方显式清空
type Registry interface {
	Lookup(fingerprint string) (string, bool)
	Store(fingerprint, id string)
	Clear()
	Snapshot() map[string]string
	Restore(entries map[string]string)
}

// IDGenerator 生成新的幻灯片 ID
type IDGenerator func() string

// NewXID 默认的 ID 生成器
func NewXID() string {
	return xid.New().String()
}

// MemoryRegistry 进程内的映射表，不支持并发
type MemoryRegistry struct {
	ids map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{ids: make(map[string]string)}
}

func (r *MemoryRegistry) Lookup(fingerprint string) (string, bool) {
	id, ok := r.ids[fingerprint]
	return id, ok
}

func (r *MemoryRegistry) Store(fingerprint, id string) {
	r.ids[fingerprint] = id
}

func (r *MemoryRegistry) Clear() {
	r.ids = make(map[string]string)
}

func (r *MemoryRegistry) Snapshot() map[string]string {
	out := make(map[string]string, len(r.ids))
	for k, v := range r.ids {
		out[k] = v
	}
	return out
}

func (r *MemoryRegistry) Restore(entries map[string]string) {
	for k, v := range entries {
		r.ids[k] = v
	}
}

func (r *MemoryRegistry) Len() int { return len(r.ids) }

const ordinalPrefix = "ordinal-"

// Fingerprint 计算单元指纹，优先级：页码、首个标题、结构签名、内容哈希
func Fingerprint(unit *XMLNode, d Dialect) string {
	d = d.normalized()
	if v := strings.TrimSpace(unit.Attrs.Value(d.OrdinalAttr)); v != "" {
		return ordinalPrefix + v
	}

	for _, ch := range unit.Children {
		if !isHeading(ch.Tag) {
			continue
		}
		if text := strings.TrimSpace(ch.InnerText()); text != "" {
			return "heading-" + norm.NFC.String(text)
		}
		break
	}

	var sb strings.Builder
	keys := unit.Attrs.Keys()
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(unit.Attrs.Value(k))
	}
	if len(unit.Children) > 0 {
		sb.WriteByte('|')
		for i, ch := range unit.Children {
			if i == 3 {
				break
			}
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteString(strings.ToUpper(ch.Tag))
		}
	}
	if sb.Len() >= 5 {
		return sb.String()
	}
	return contentHash(unit.Source)
}

// contentHash 32 位滚动哈希 h*31+c
func contentHash(s string) string {
	var h int32
	for _, r := range s {
		h = (h << 5) - h + int32(r)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return "content-hash-" + strconv.FormatInt(v, 10)
}

func isHeading(tag string) bool {
	return len(tag) == 2 && (tag[0] == 'H' || tag[0] == 'h') && tag[1] >= '1' && tag[1] <= '6'
}
