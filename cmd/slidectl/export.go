package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/yockii/slide_stream/internal/service"
	"github.com/yockii/slide_stream/pkg/config"
	"github.com/yockii/slide_stream/pkg/pptgen"
	"github.com/yockii/slide_stream/pkg/slideparser"
)

type exportOptions struct {
	output     string
	title      string
	template   string
	themeColor string
	thankYou   bool
	debugDir   string
}

func newExportCmd() *cobra.Command {
	opts := &exportOptions{}
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Parse a complete markup file and write it as a PPTX deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("thank-you") {
				opts.thankYou = config.GetBool("export.thank_you_slide")
			}
			if opts.template == "" {
				opts.template = config.GetString("export.template_path")
			}
			n, err := export(string(data), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d slides to %s\n", n, opts.output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "presentation.pptx", "Output file")
	cmd.Flags().StringVar(&opts.title, "title", "", "Document title (defaults to the first heading)")
	cmd.Flags().StringVar(&opts.template, "template", "", "Template .pptx to reuse master, layout and theme from")
	cmd.Flags().StringVar(&opts.themeColor, "theme-color", "", "Theme color as #RRGGBB")
	cmd.Flags().BoolVar(&opts.thankYou, "thank-you", false, "Append a closing slide")
	cmd.Flags().StringVar(&opts.debugDir, "debug-dir", "", "Dump the mapped slide structure into this directory")
	return cmd
}

// export 返回写入的幻灯片页数，不含结束页
func export(markup string, opts *exportOptions) (int, error) {
	parser := service.NewParser()
	parser.Feed(markup)
	parser.Finalize()
	doc := parser.GetAllSlides()
	if len(doc) == 0 {
		return 0, pptgen.ErrNoSlides
	}

	title := opts.title
	if title == "" {
		title = firstHeading(doc)
	}

	g := pptgen.NewPPTGenerator()
	if opts.debugDir != "" {
		g.EnableDebug(opts.debugDir)
	}
	data, err := g.GeneratePPTX(pptgen.TemplateConfig{
		TemplatePath:  opts.template,
		Title:         title,
		ThemeColor:    opts.themeColor,
		ThankYouSlide: opts.thankYou,
	}, doc)
	if err != nil {
		return 0, err
	}
	if err := g.WriteToFile(data, opts.output); err != nil {
		return 0, err
	}
	return len(doc), nil
}

func firstHeading(doc slideparser.Document) string {
	for _, s := range doc {
		for _, n := range s.Content {
			if h, ok := n.(*slideparser.Heading); ok {
				if t := strings.TrimSpace(slideparser.RunsText(h.Runs)); t != "" {
					return t
				}
			}
		}
	}
	return ""
}
