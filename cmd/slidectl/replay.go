package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

type replayOptions struct {
	chunk  int
	deltas bool
}

func newReplayCmd() *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Feed a recorded markup stream through the parser fragment by fragment",
		Long: `Replay splits the file into fragments of at most --chunk bytes (never inside a
UTF-8 sequence) and feeds them to the streaming parser, the same way the server
consumes an upstream model stream. The final document is printed as JSON.

Example:
  slidectl replay recorded.txt --chunk 7 --deltas`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return replay(cmd.OutOrStdout(), string(data), opts)
		},
	}
	cmd.Flags().IntVarP(&opts.chunk, "chunk", "n", 16, "Fragment size in bytes")
	cmd.Flags().BoolVar(&opts.deltas, "deltas", false, "Print every non-empty delta as a JSON line before the document")
	return cmd
}

type replayStep struct {
	Step   int                 `json:"step"`
	Offset int                 `json:"offset"`
	Slides []slideparser.Slide `json:"slides"`
}

func replay(w io.Writer, text string, opts *replayOptions) error {
	if opts.chunk <= 0 {
		return fmt.Errorf("chunk must be positive, got %d", opts.chunk)
	}
	parser := service.NewParser()
	enc := json.NewEncoder(w)

	offset := 0
	for i, fragment := range splitFragments(text, opts.chunk) {
		deltas := parser.Feed(fragment)
		offset += len(fragment)
		if opts.deltas && len(deltas) > 0 {
			if err := enc.Encode(replayStep{Step: i, Offset: offset, Slides: deltas}); err != nil {
				return err
			}
		}
	}
	final := parser.Finalize()
	if opts.deltas && len(final) > 0 {
		if err := enc.Encode(replayStep{Step: -1, Offset: offset, Slides: final}); err != nil {
			return err
		}
	}

	enc.SetIndent("", "  ")
	return enc.Encode(parser.GetAllSlides())
}

// splitFragments 按字节数切分，不会切断多字节字符
func splitFragments(text string, size int) []string {
	var fragments []string
	for len(text) > 0 {
		end := size
		if end >= len(text) {
			fragments = append(fragments, text)
			break
		}
		for end > 0 && !utf8.RuneStart(text[end]) {
			end--
		}
		if end == 0 {
			// 单个字符比分片还长时整体输出
			_, n := utf8.DecodeRuneInString(text)
			end = n
		}
		fragments = append(fragments, text[:end])
		text = text[end:]
	}
	return fragments
}
