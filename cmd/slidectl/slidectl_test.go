package main

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yockii/slide_stream/pkg/pptgen"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

const sampleMarkup = `<PRESENTATION>
<SECTION page_number="1"><H1>季度回顾</H1><P>第三季度</P></SECTION>
<SECTION page_number="2"><H2>增长</H2><BULLETS><DIV><P>收入 <B>20%</B></P></DIV><DIV><P>成本持平</P></DIV></BULLETS></SECTION>
</PRESENTATION>`

func TestSplitFragments(t *testing.T) {
	text := "ab中文cd"
	fragments := splitFragments(text, 3)
	assert.Equal(t, text, strings.Join(fragments, ""))
	for _, f := range fragments {
		assert.True(t, len(f) <= 3, f)
		assert.True(t, strings.ToValidUTF8(f, "?") == f, "fragment %q splits a rune", f)
	}

	// 分片比单个字符还小
	fragments = splitFragments("中文", 1)
	assert.Equal(t, []string{"中", "文"}, fragments)
	assert.Empty(t, splitFragments("", 4))
}

func TestReplay_Document(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replay(&out, sampleMarkup, &replayOptions{chunk: 5}))

	var doc []map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Len(t, doc, 2)
	assert.NotEmpty(t, doc[0]["id"])
	assert.NotEqual(t, doc[0]["id"], doc[1]["id"])
	assert.NotContains(t, out.String(), `"generating"`)
}

func TestReplay_Deltas(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replay(&out, sampleMarkup, &replayOptions{chunk: 7, deltas: true}))

	// 每个增量一行，最后是缩进后的完整文档
	sc := bufio.NewScanner(strings.NewReader(out.String()))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	steps := 0
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, `{"step"`) {
			break
		}
		var step struct {
			Step   int               `json:"step"`
			Offset int               `json:"offset"`
			Slides []json.RawMessage `json:"slides"`
		}
		require.NoError(t, json.Unmarshal([]byte(line), &step))
		assert.Positive(t, step.Offset)
		assert.NotEmpty(t, step.Slides)
		steps++
	}
	assert.Greater(t, steps, 1)
	assert.Contains(t, out.String(), `"generating":true`)
}

func TestReplay_BadChunk(t *testing.T) {
	err := replay(&bytes.Buffer{}, sampleMarkup, &replayOptions{chunk: 0})
	assert.Error(t, err)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "deck.pptx")

	n, err := export(sampleMarkup, &exportOptions{output: out, thankYou: true})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer r.Close()
	names := map[string]bool{}
	for _, f := range r.File {
		names[f.Name] = true
	}
	assert.True(t, names["ppt/slides/slide3.xml"], "thank-you slide")
	assert.False(t, names["ppt/slides/slide4.xml"])
}

func TestExport_Empty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "deck.pptx")
	_, err := export("no markup here", &exportOptions{output: out})
	assert.ErrorIs(t, err, pptgen.ErrNoSlides)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "deck.txt")
	require.NoError(t, os.WriteFile(in, []byte(sampleMarkup), 0644))
	out := filepath.Join(dir, "deck.pptx")

	var stdout bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetArgs([]string{"--config", filepath.Join(dir, "missing.yaml"), "export", in, "-o", out, "--title", "回顾"})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, stdout.String(), "wrote 2 slides")
	assert.FileExists(t, out)
}

func TestFirstHeading(t *testing.T) {
	doc := slideparser.ParseDocument(sampleMarkup)
	assert.Equal(t, "季度回顾", firstHeading(doc))
	assert.Empty(t, firstHeading(slideparser.ParseDocument(`<SECTION><P>x</P></SECTION>`)))
}
