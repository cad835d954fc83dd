package slideparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShouldMark(t *testing.T) {
	cases := []struct {
		name      string
		candidate string
		tail      string
		want      bool
	}{
		{"at end", "Hello", "<H1>Hello", true},
		{"followed by tag", "Hello", "<H1>Hello</H1>", false},
		{"followed by text", "Hello", "<P>Hello world", true},
		{"followed by whitespace then tag", "Hello", "<P>Hello \n</P>", false},
		{"candidate trimmed", "  Hello\n", "<H1>Hello", true},
		{"last occurrence wins", "Hi", "<P>Hi</P><P>Hi", true},
		{"last occurrence closed", "Hi", "<P>Hi</P><P>Hi</P>", false},
		{"missing", "abc", "xyz", false},
		{"empty", "", "abc", false},
		{"blank", "   ", "abc   ", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldMark(tc.candidate, tc.tail))
		})
	}
}

func TestClearMarks(t *testing.T) {
	slides := []Slide{{
		ID: "s1",
		Content: []Node{
			&Heading{Level: 1, Runs: []TextRun{{Text: "T", Generating: true}}},
			&Bullets{Items: []Item{{Children: []Node{
				&Paragraph{Runs: []TextRun{{Text: "b", Bold: true, Generating: true}}},
			}}}},
			&IconList{Items: []IconItem{{Icon: &Icon{Query: "star"}, Children: []Node{
				&Paragraph{Runs: []TextRun{{Text: "i", Generating: true}}},
			}}}},
			&Paragraph{Children: []Node{
				&Heading{Level: 2, Runs: []TextRun{{Text: "nested", Generating: true}}},
			}},
			&Chart{ChartType: "bar", Data: []ChartDatum{{Label: "a", Value: 1}}},
		},
	}}
	require.True(t, HasMarks(slides))

	cleared := ClearMarks(slides)
	assert.False(t, HasMarks(cleared))
	// 原数据不受影响
	assert.True(t, HasMarks(slides))
	assert.True(t, slides[0].Content[0].(*Heading).Runs[0].Generating)

	assert.Equal(t, "s1", cleared[0].ID)
	assert.Equal(t, TextRun{Text: "b", Bold: true}, cleared[0].Content[1].(*Bullets).Items[0].Children[0].(*Paragraph).Runs[0])
	assert.Equal(t, "star", cleared[0].Content[2].(*IconList).Items[0].Icon.Query)
	assert.Nil(t, ClearMarks(nil))
}
