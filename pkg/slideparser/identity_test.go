package slideparser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitOf(t *testing.T, src string) *XMLNode {
	t.Helper()
	root := parseTree(t, src)
	require.NotEmpty(t, root.Children)
	return root.Children[0]
}

func TestFingerprint(t *testing.T) {
	d := DefaultDialect()

	t.Run("ordinal", func(t *testing.T) {
		fp := Fingerprint(unitOf(t, `<SECTION page_number=" 3 "><H1>x</H1></SECTION>`), d)
		assert.Equal(t, "ordinal-3", fp)
	})

	t.Run("heading is NFC normalized", func(t *testing.T) {
		fp := Fingerprint(unitOf(t, "<SECTION><H2>  Cafe\u0301 </H2></SECTION>"), d)
		assert.Equal(t, "heading-Caf\u00e9", fp)
	})

	t.Run("blank heading falls through", func(t *testing.T) {
		fp := Fingerprint(unitOf(t, `<SECTION><H1> </H1><H2>Sub</H2></SECTION>`), d)
		assert.Equal(t, "|H1-H2", fp)
	})

	t.Run("structural signature", func(t *testing.T) {
		fp := Fingerprint(unitOf(t, `<SECTION layout="left" align="end"><P>a</P><P>b</P><BULLETS></BULLETS><P>c</P></SECTION>`), d)
		assert.Equal(t, "align=end;layout=left|P-P-BULLETS", fp)
	})

	t.Run("content hash", func(t *testing.T) {
		unit := unitOf(t, `<SECTION><P>x</P></SECTION>`)
		fp := Fingerprint(unit, d)
		assert.True(t, strings.HasPrefix(fp, "content-hash-"))
		assert.Equal(t, contentHash(unit.Source), fp)
	})
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, "content-hash-0", contentHash(""))
	assert.Equal(t, "content-hash-3105", contentHash("ab"))

	// 溢出后取绝对值，不会出现负号
	long := contentHash(strings.Repeat("overflow", 100))
	assert.NotContains(t, strings.TrimPrefix(long, "content-hash-"), "-")
}

func TestMemoryRegistry(t *testing.T) {
	reg := NewMemoryRegistry()
	reg.Store("a", "1")

	snap := reg.Snapshot()
	snap["b"] = "2"
	_, ok := reg.Lookup("b")
	assert.False(t, ok, "snapshot must be a copy")

	reg.Clear()
	_, ok = reg.Lookup("a")
	assert.False(t, ok)

	reg.Restore(snap)
	id, ok := reg.Lookup("b")
	assert.True(t, ok)
	assert.Equal(t, "2", id)
}

func TestNewXID(t *testing.T) {
	a, b := NewXID(), NewXID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 20)
}

func TestFallbackFingerprint(t *testing.T) {
	ordinal := ordinalPattern(DefaultDialect())
	assert.Equal(t, "ordinal-7", fallbackFingerprint(`<SECTION page_number='7'><P>x`, ordinal))
	// 页码只从起始标签中取
	fp := fallbackFingerprint(`<SECTION><P>page_number="3"</P>`, ordinal)
	assert.True(t, strings.HasPrefix(fp, "content-hash-"), fp)

	custom := ordinalPattern(Dialect{OrdinalAttr: "idx"}.normalized())
	assert.Equal(t, "ordinal-2", fallbackFingerprint(`<SLIDE idx="2">`, custom))
}
