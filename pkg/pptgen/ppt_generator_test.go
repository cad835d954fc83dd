package pptgen

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

const deckMarkup = `<PRESENTATION>
<SECTION page_number="1"><H1>Quarterly & Review</H1><P>Q3 results</P></SECTION>
<SECTION page_number="2" layout="left"><IMG src="https://img.example.com/a.png" alt="chart"><H2>Growth</H2><BULLETS><DIV><H3>Revenue</H3><P>up <B>20%</B></P></DIV><DIV><P>Costs flat</P></DIV></BULLETS></SECTION>
<SECTION page_number="3"><H3>Detail</H3><P>a < b</P></SECTION>
<SECTION page_number="4"><P>Stay hungry</P></SECTION>
<SECTION page_number="5" bgColor="#ff8800"><H2>Numbers</H2><CHART charttype="bar"><TABLE><TR><TD type="label"><VALUE>A</VALUE></TD><TD type="data"><VALUE>1.5</VALUE></TD></TR></TABLE></CHART></SECTION>
</PRESENTATION>`

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string, len(r.File))
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		parts[f.Name] = string(b)
	}
	return parts
}

// 所有 XML 部件都必须格式正确
func assertWellFormed(t *testing.T, parts map[string]string) {
	t.Helper()
	for name, content := range parts {
		dec := xml.NewDecoder(strings.NewReader(content))
		for {
			_, err := dec.Token()
			if err == io.EOF {
				break
			}
			require.NoError(t, err, name)
		}
	}
}

func TestGeneratePPTX_BasicPackage(t *testing.T) {
	slides := slideparser.ParseDocument(deckMarkup)
	require.Len(t, slides, 5)

	g := NewPPTGenerator()
	data, err := g.GeneratePPTX(TemplateConfig{Title: "Review <2024>", ThankYouSlide: true}, slides)
	require.NoError(t, err)

	parts := readParts(t, data)
	assertWellFormed(t, parts)
	for _, name := range []string{
		"[Content_Types].xml", "_rels/.rels", "ppt/presentation.xml", "ppt/_rels/presentation.xml.rels",
		"ppt/slideMasters/slideMaster1.xml", "ppt/slideLayouts/slideLayout1.xml", "ppt/theme/theme1.xml",
		"docProps/core.xml", "docProps/app.xml", "ppt/slides/slide6.xml",
	} {
		assert.Contains(t, parts, name)
	}
	assert.NotContains(t, parts, "ppt/slides/slide7.xml")
	assert.Contains(t, parts["docProps/core.xml"], "Review &lt;2024&gt;")
	assert.Contains(t, parts["docProps/app.xml"], "<Slides>6</Slides>")
	assert.Equal(t, 6, strings.Count(parts["ppt/presentation.xml"], "<p:sldId "))
	assert.Contains(t, parts["ppt/theme/theme1.xml"], defaultThemeColor)

	assert.Contains(t, parts["ppt/slides/slide1.xml"], "Quarterly &amp; Review")
	assert.Contains(t, parts["ppt/slides/slide3.xml"], "a &lt; b")
	assert.Contains(t, parts["ppt/slides/slide5.xml"], `<a:srgbClr val="FF8800"/>`)
	assert.Contains(t, parts["ppt/slides/slide5.xml"], "A: 1.5")
	assert.Contains(t, parts["ppt/slides/slide6.xml"], defaultThankYouText)

	rels := parts["ppt/slides/_rels/slide2.xml.rels"]
	assert.Contains(t, rels, `Target="https://img.example.com/a.png" TargetMode="External"`)
	assert.Contains(t, parts["ppt/slides/slide2.xml"], `r:link="rId2"`)
	assert.NotContains(t, parts["ppt/slides/_rels/slide1.xml.rels"], "TargetMode")
}

func TestGeneratePPTX_Empty(t *testing.T) {
	_, err := NewPPTGenerator().GeneratePPTX(TemplateConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoSlides)
}

func TestGeneratePPTX_FromTemplate(t *testing.T) {
	g := NewPPTGenerator()
	base, err := g.GeneratePPTX(TemplateConfig{ThemeColor: "#00AA00"}, slideparser.ParseDocument(deckMarkup))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "template.pptx")
	require.NoError(t, g.WriteToFile(base, path))

	g.RegisterTemplate(TemplateBusiness, path)
	slides := slideparser.ParseDocument(`<SECTION page_number="1"><H2>Only</H2><P>one</P></SECTION>`)
	data, err := g.GeneratePPTX(TemplateConfig{Type: TemplateBusiness}, slides)
	require.NoError(t, err)

	parts := readParts(t, data)
	assertWellFormed(t, parts)
	assert.Contains(t, parts, "ppt/slides/slide1.xml")
	assert.NotContains(t, parts, "ppt/slides/slide2.xml")
	assert.NotContains(t, parts, "ppt/slides/_rels/slide2.xml.rels")
	// 主题来自模板
	assert.Contains(t, parts["ppt/theme/theme1.xml"], "00AA00")
	assert.Contains(t, parts["[Content_Types].xml"], "/docProps/core.xml")
	assert.Equal(t, 1, strings.Count(parts["[Content_Types].xml"], "/ppt/slides/slide"))
}

func TestGeneratePPTX_MissingTemplate(t *testing.T) {
	_, err := NewPPTGenerator().GeneratePPTX(TemplateConfig{TemplatePath: filepath.Join(t.TempDir(), "none.pptx")},
		slideparser.ParseDocument(deckMarkup))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapSlides_Layouts(t *testing.T) {
	g := NewPPTGenerator()
	contents := g.mapSlides(slideparser.ParseDocument(deckMarkup), TemplateConfig{}.normalized())
	require.Len(t, contents, 5)

	cover := contents[0]
	assert.Equal(t, LayoutTitle, cover.Layout)
	assert.Equal(t, "Quarterly & Review", cover.Title)
	assert.Equal(t, "Q3 results", cover.Subtitle)

	growth := contents[1]
	assert.Equal(t, LayoutTwoColumn, growth.Layout)
	assert.True(t, growth.ImageOnLeft)
	assert.Equal(t, "chart", growth.ImageAlt)
	require.Len(t, growth.Content, 3)
	assert.Equal(t, "Revenue", growth.Content[0].Text())
	assert.True(t, growth.Content[0].Emphasis)
	assert.Equal(t, 0, growth.Content[0].Level)
	assert.Equal(t, 1, growth.Content[1].Level)
	assert.Equal(t, "Costs flat", growth.Content[2].Text())
	assert.Equal(t, 0, growth.Content[2].Level)

	detail := contents[2]
	assert.Equal(t, LayoutSubsection, detail.Layout)
	assert.Equal(t, "Detail", detail.Subtitle)
	assert.Equal(t, "Growth", detail.ParentTitle)

	quote := contents[3]
	assert.Equal(t, LayoutQuote, quote.Layout)
	assert.Equal(t, "Stay hungry", quote.QuoteText)

	numbers := contents[4]
	assert.Equal(t, LayoutContent, numbers.Layout)
	assert.Equal(t, "#ff8800", numbers.BackgroundColor)
}

func TestMapSlide_TextColumnsAndImageOnly(t *testing.T) {
	doc := slideparser.ParseDocument(`<SECTION page_number="1"><H2>Compare</H2><COLUMNS><DIV><P>left</P></DIV><DIV><P>right</P></DIV></COLUMNS></SECTION>
<SECTION page_number="2"><IMG src="https://img.example.com/full.png" alt="full"></SECTION>`)
	require.Len(t, doc, 2)

	cols := mapSlide(doc[0])
	assert.Equal(t, LayoutTwoColumn, cols.Layout)
	require.Len(t, cols.LeftColumn, 1)
	assert.Equal(t, "left", cols.LeftColumn[0].Text())
	require.Len(t, cols.RightColumn, 1)
	assert.Equal(t, "right", cols.RightColumn[0].Text())

	img := mapSlide(doc[1])
	assert.Equal(t, LayoutImage, img.Layout)
	assert.Equal(t, "https://img.example.com/full.png", img.ImageURL)
}

func TestNormalizeColor(t *testing.T) {
	assert.Equal(t, "ABCDEF", normalizeColor("#abcdef"))
	assert.Equal(t, "ABCDEF", normalizeColor(" abcdef "))
	assert.Empty(t, normalizeColor("red"))
	assert.Empty(t, normalizeColor("#abc"))
}

func TestDumpSlideStructure(t *testing.T) {
	g := NewPPTGenerator()
	dir := t.TempDir()
	g.EnableDebug(dir)

	_, err := g.GeneratePPTX(TemplateConfig{}, slideparser.ParseDocument(deckMarkup))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "debug_slides.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"title": "Growth"`)
}
