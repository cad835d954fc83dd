package slideparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func convertMarkup(t *testing.T, src string, mark func(string) bool) Slide {
	t.Helper()
	root, err := ParseTree(src, DefaultDialect(), 0)
	require.NoError(t, err)
	c := converter{dialect: DefaultDialect().normalized(), mark: mark}
	slide, unit := c.convert(root)
	require.NotNil(t, unit)
	return slide
}

func TestConvert_UnitAttributes(t *testing.T) {
	slide := convertMarkup(t, `<SECTION layout="right" align="start" bgColor="#fff" width="L"><H1>x</H1></SECTION>`, nil)
	require.NotNil(t, slide.LayoutType)
	assert.Equal(t, LayoutRight, *slide.LayoutType)
	assert.Equal(t, AlignStart, slide.Alignment)
	assert.Equal(t, "#fff", slide.BackgroundColor)
	require.NotNil(t, slide.WidthClass)
	assert.Equal(t, WidthWide, *slide.WidthClass)

	slide = convertMarkup(t, `<SECTION layout="diagonal" align="justify" width="XL"></SECTION>`, nil)
	require.NotNil(t, slide.LayoutType)
	assert.Equal(t, LayoutLeft, *slide.LayoutType)
	assert.Equal(t, AlignCenter, slide.Alignment)
	assert.Nil(t, slide.WidthClass)
	assert.NotNil(t, slide.Content)
	assert.Empty(t, slide.Content)

	slide = convertMarkup(t, `<SECTION width="medium"></SECTION>`, nil)
	assert.Nil(t, slide.LayoutType)
	assert.Equal(t, WidthMedium, *slide.WidthClass)
}

func TestConvert_NoUnit(t *testing.T) {
	root, err := ParseTree(`<P>orphan</P>`, DefaultDialect(), 0)
	require.NoError(t, err)
	c := converter{dialect: DefaultDialect().normalized()}
	slide, unit := c.convert(root)
	assert.Nil(t, unit)
	assert.Equal(t, AlignCenter, slide.Alignment)
	assert.Empty(t, slide.Content)
}

func TestConvert_RootImage(t *testing.T) {
	slide := convertMarkup(t, `<SECTION layout="left">
<IMG src="https://img.example.com/cat.png" alt="cat" background="true" query="cat photo">
<H1>Cats</H1>
<IMG src="https://img.example.com/dog.png" alt="dog">
</SECTION>`, nil)

	require.NotNil(t, slide.RootImage)
	assert.Equal(t, "https://img.example.com/cat.png", slide.RootImage.URL)
	assert.Equal(t, "cat", slide.RootImage.AltText)
	assert.Equal(t, "cat photo", slide.RootImage.QueryHint)
	assert.True(t, slide.RootImage.IsBackground)

	require.Len(t, slide.Content, 1)
	assert.Equal(t, KindHeading, slide.Content[0].Kind())
}

func TestConvert_InvalidImageScheme(t *testing.T) {
	slide := convertMarkup(t, `<SECTION page_number="1"><IMG src="ftp://x.png" alt="a"><H1>Title</H1></SECTION>`, nil)
	assert.Nil(t, slide.RootImage)
	require.Len(t, slide.Content, 1)
	assert.Equal(t, KindHeading, slide.Content[0].Kind())

	slide = convertMarkup(t, `<SECTION><COLUMNS><DIV><IMG src="http://x/1.png" alt="one"><P>t</P></DIV><DIV><IMG src="ftp://bad"></DIV></COLUMNS></SECTION>`, nil)
	require.Len(t, slide.Content, 1)
	cols := slide.Content[0].(*Columns)
	require.Len(t, cols.Items, 2)
	require.Len(t, cols.Items[0].Children, 2)
	img := cols.Items[0].Children[0].(*Image)
	assert.Equal(t, "http://x/1.png", img.URL)
	assert.Equal(t, "one", img.Alt)
	assert.Empty(t, cols.Items[1].Children)
}

func TestConvert_Headings(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><H1>One</H1><h3>Three</h3><H6>Six</H6></SECTION>`, nil)
	require.Len(t, slide.Content, 3)
	for i, level := range []int{1, 3, 6} {
		h := slide.Content[i].(*Heading)
		assert.Equal(t, level, h.Level)
	}
	assert.Equal(t, "Three", RunsText(slide.Content[1].(*Heading).Runs))
}

func TestConvert_InlineFormatting(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><P>plain <B>bold</B> <I>it</I> <U>u</U> <S>s</S> <STRONG><EM>both</EM></STRONG></P></SECTION>`, nil)
	p := slide.Content[0].(*Paragraph)
	require.Len(t, p.Runs, 10)
	assert.Equal(t, TextRun{Text: "plain "}, p.Runs[0])
	assert.Equal(t, TextRun{Text: "bold", Bold: true}, p.Runs[1])
	assert.Equal(t, TextRun{Text: "it", Italic: true}, p.Runs[3])
	assert.Equal(t, TextRun{Text: "u", Underline: true}, p.Runs[5])
	assert.Equal(t, TextRun{Text: "s", Strikethrough: true}, p.Runs[7])
	// 最内层的标签生效
	assert.Equal(t, TextRun{Text: "both", Italic: true}, p.Runs[9])
}

func TestConvert_LeafFlattensBlocks(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><H2>Hello <SPAN>big</SPAN> world</H2><P></P></SECTION>`, nil)
	require.Len(t, slide.Content, 2)
	assert.Equal(t, "Hello big world", RunsText(slide.Content[0].(*Heading).Runs))
	assert.Equal(t, []TextRun{{Text: ""}}, slide.Content[1].(*Paragraph).Runs)
}

func TestConvert_StrayText(t *testing.T) {
	slide := convertMarkup(t, `<SECTION>Loose text<H1>T</H1>more <B>bold</B></SECTION>`, nil)
	require.Len(t, slide.Content, 3)
	assert.Equal(t, "Loose text", PlainText(slide.Content[0]))
	assert.Equal(t, KindHeading, slide.Content[1].Kind())
	p := slide.Content[2].(*Paragraph)
	assert.Equal(t, []TextRun{{Text: "more "}, {Text: "bold", Bold: true}}, p.Runs)
}

func TestConvert_UnknownTags(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><WRAP><P>a</P><P>b</P></WRAP><BOX><H3>x</H3></BOX><EMPTY/><SPAN>hi</SPAN><ICON query="lost"/></SECTION>`, nil)
	require.Len(t, slide.Content, 3)

	wrap := slide.Content[0].(*Paragraph)
	assert.Empty(t, wrap.Runs)
	require.Len(t, wrap.Children, 2)
	assert.Equal(t, "a\nb", PlainText(wrap))

	h := slide.Content[1].(*Heading)
	assert.Equal(t, 3, h.Level)

	assert.Equal(t, "hi", PlainText(slide.Content[2]))
}

func TestConvert_Containers(t *testing.T) {
	slide := convertMarkup(t, `<SECTION>
<BULLETS><DIV><H3>One</H3><P>first</P></DIV><DIV>just text</DIV></BULLETS>
<CYCLE><DIV><P>a</P></DIV></CYCLE>
<STAIRCASE><DIV><P>b</P></DIV><DIV><P>c</P></DIV></STAIRCASE>
</SECTION>`, nil)
	require.Len(t, slide.Content, 3)

	bullets := slide.Content[0].(*Bullets)
	require.Len(t, bullets.Items, 2)
	assert.Len(t, bullets.Items[0].Children, 2)
	assert.Equal(t, "just text", PlainText(bullets.Items[1].Children[0]))

	assert.Len(t, slide.Content[1].(*Cycle).Items, 1)
	assert.Len(t, slide.Content[2].(*Staircase).Items, 2)
}

func TestConvert_Icons(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><ICONS>
<DIV><ICON query="rocket"/><H3>Fast</H3><P>desc</P></DIV>
<DIV><ICON query="x"><P>no icon</P></DIV>
<DIV><ICON query="star</SECTION"><P>s</P></DIV>
</ICONS></SECTION>`, nil)
	icons := slide.Content[0].(*IconList)
	require.Len(t, icons.Items, 3)

	require.NotNil(t, icons.Items[0].Icon)
	assert.Equal(t, "rocket", icons.Items[0].Icon.Query)
	assert.Len(t, icons.Items[0].Children, 2)

	assert.Nil(t, icons.Items[1].Icon)
	assert.Len(t, icons.Items[1].Children, 1)

	require.NotNil(t, icons.Items[2].Icon)
	assert.Equal(t, "star", icons.Items[2].Icon.Query)
}

func TestConvert_Chart(t *testing.T) {
	slide := convertMarkup(t, `<SECTION><CHART charttype="pie"><TABLE>
<TR><TD type="label"><VALUE>Q1</VALUE></TD><TD type="data"><VALUE>12%</VALUE></TD></TR>
<TR><TD type="label"><VALUE>Q2</VALUE></TD><TD type="data"><VALUE>n/a</VALUE></TD></TR>
</TABLE></CHART><CHART></CHART></SECTION>`, nil)
	require.Len(t, slide.Content, 2)

	chart := slide.Content[0].(*Chart)
	assert.Equal(t, "pie", chart.ChartType)
	assert.Equal(t, []ChartDatum{{Label: "Q1", Value: 12}, {Label: "Q2", Value: 0}}, chart.Data)

	empty := slide.Content[1].(*Chart)
	assert.Equal(t, "horizontal-bar", empty.ChartType)
	assert.Empty(t, empty.Data)
}

func TestConvert_Visualizations(t *testing.T) {
	slide := convertMarkup(t, `<SECTION>
<PYRAMID><DIV><H3>Top</H3></DIV><DIV></DIV><DIV>Base level</DIV></PYRAMID>
<ARROWS><DIV><P>go</P></DIV></ARROWS>
<TIMELINE><DIV><P>2020</P></DIV></TIMELINE>
</SECTION>`, nil)
	require.Len(t, slide.Content, 3)

	pyramid := slide.Content[0].(*VisualizationList)
	assert.Equal(t, VisualizationPyramid, pyramid.Visualization)
	require.Len(t, pyramid.Items, 2)
	assert.Equal(t, "Base level", PlainText(pyramid.Items[1].Children[0]))

	assert.Equal(t, VisualizationArrow, slide.Content[1].(*VisualizationList).Visualization)
	assert.Equal(t, VisualizationTimeline, slide.Content[2].(*VisualizationList).Visualization)
}

func TestConvert_GeneratingMark(t *testing.T) {
	tail := `<SECTION><H1>Done</H1><P>Typing`
	slide := convertMarkup(t, tail+"</SECTION>", func(s string) bool { return ShouldMark(s, tail) })
	require.Len(t, slide.Content, 2)
	assert.False(t, slide.Content[0].(*Heading).Runs[0].Generating)
	assert.True(t, slide.Content[1].(*Paragraph).Runs[0].Generating)
}

func TestParseNumber(t *testing.T) {
	cases := map[string]float64{
		"12%":    12,
		"-3.5kg": -3.5,
		".5":     0.5,
		"1e3":    1000,
		" 42 ":   42,
		"abc":    0,
		"":       0,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseNumber(in), in)
	}
}

func TestIconQuery(t *testing.T) {
	c := converter{dialect: DefaultDialect().normalized()}
	assert.Equal(t, "rocket", c.iconQuery("rocket"))
	assert.Equal(t, "chart up", c.iconQuery(" chart up <"))
	assert.Equal(t, "star", c.iconQuery("star>"))
	assert.Equal(t, "", c.iconQuery("a"))
	assert.Equal(t, "", c.iconQuery("SECTION"))
	assert.Equal(t, "云朵", c.iconQuery("云朵"))
}
