package outline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sample = `# Introduction
- why it matters

# The *Core* Idea
Some text.
## detail

#hashtag is not a heading
# Wrap-up`

func TestSplit(t *testing.T) {
	items := Split(sample)
	assert.Equal(t, []string{
		"# Introduction\n- why it matters",
		"# The *Core* Idea\nSome text.\n## detail\n\n#hashtag is not a heading",
		"# Wrap-up",
	}, items)

	assert.Nil(t, Split("  \n"))
	assert.Equal(t, []string{"just a line"}, Split("just a line"))
	assert.Equal(t, []string{"preface", "# A"}, Split("preface\n# A"))
}

func TestTitles(t *testing.T) {
	assert.Equal(t, []string{"Introduction", "The Core Idea", "Wrap-up"}, Titles(sample))
	assert.Equal(t, []string{"detail"}, Headings(sample, 2))
	assert.Empty(t, Titles("no headings here"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Normalize([]string{" a ", "", "\n", "b"}))
}
