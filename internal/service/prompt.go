package service

import (
	"fmt"
	"strings"

	"github.com/yockii/slide_stream/pkg/slideparser"
)

// GenerateRequest 一次生成的输入，空字段使用演示文稿中保存的值
type GenerateRequest struct {
	Title           string   `json:"title"`
	Outline         []string `json:"outline"`
	OutlineMarkdown string   `json:"outlineMarkdown"`
	Language        string   `json:"language"`
	Tone            string   `json:"tone"`
	NumSlides       int      `json:"numSlides"`
	Model           string   `json:"model"`
}

// BuildPrompt 生成要求模型输出幻灯片标记的提示词
func BuildPrompt(req *GenerateRequest, d slideparser.Dialect) string {
	wrapper := strings.ToUpper(d.WrapperTag)
	unit := strings.ToUpper(d.UnitTag)
	numSlides := req.NumSlides
	if numSlides <= 0 {
		numSlides = len(req.Outline)
	}
	tone := req.Tone
	if tone == "" {
		tone = "professional"
	}

	var outline strings.Builder
	for i, item := range req.Outline {
		fmt.Fprintf(&outline, "  %d. %s\n", i+1, strings.ReplaceAll(strings.TrimSpace(item), "\n", " "))
	}

	var b strings.Builder
	b.WriteString("You are an AI assistant that generates presentation content in a specific XML-like format.\n")
	b.WriteString("Your task is to create a full presentation based on the title and outline provided.\n\n")

	b.WriteString("**Presentation Details:**\n")
	fmt.Fprintf(&b, "- Title: %s\n", req.Title)
	fmt.Fprintf(&b, "- Language: %s\n", req.Language)
	fmt.Fprintf(&b, "- Tone for images: %s\n", tone)
	fmt.Fprintf(&b, "- Total Slides: %d\n", numSlides)
	b.WriteString("- Outline:\n")
	b.WriteString(outline.String())
	b.WriteString("\n")

	b.WriteString("**Output Format Rules (VERY IMPORTANT):**\n")
	fmt.Fprintf(&b, "- The entire output must be wrapped in a single <%s> tag.\n", wrapper)
	fmt.Fprintf(&b, "- Each slide is represented by a <%s> tag.\n", unit)
	fmt.Fprintf(&b, "- Each <%s> tag must have a '%s' attribute, starting from 1.\n", unit, d.OrdinalAttr)
	b.WriteString("- Use simple tags like <H1>, <H2>, <H3>, <P>, <B>, <I>, <U>, <S>.\n")
	fmt.Fprintf(&b, "- You can use layouts by adding a '%s' attribute to the <%s> tag (layout=\"left\", layout=\"right\", layout=\"vertical\").\n", d.LayoutAttr, unit)
	b.WriteString("- Group related points with <BULLETS>, <COLUMNS>, <ICONS>, <CYCLE>, <STAIRCASE>, <ARROWS>, <PYRAMID> or <TIMELINE>, one <DIV> per item.\n")
	b.WriteString("- Inside <ICONS> items start with <ICON query=\"...\"/> describing the icon.\n")
	b.WriteString("- Charts use <CHART charttype=\"bar\"><TABLE><TR><TD type=\"label\"><VALUE>..</VALUE></TD><TD type=\"data\"><VALUE>..</VALUE></TD></TR></TABLE></CHART>.\n")
	b.WriteString("- To suggest an image, use an <IMG> tag with an 'alt' attribute describing the image. The 'src' attribute should be a placeholder.\n")
	b.WriteString("- Your response MUST be only the XML-like content. Do not include any other text, markdown, or explanations.\n")
	b.WriteString("- Ensure all tags are properly closed.\n\n")

	fmt.Fprintf(&b, "**Example of a single %s:**\n", unit)
	fmt.Fprintf(&b, "<%s %s=\"1\" %s=\"left\">\n", unit, d.OrdinalAttr, d.LayoutAttr)
	b.WriteString("  <H1>The Dawn of AI</H1>\n")
	b.WriteString("  <P>Exploring the early concepts and foundational algorithms that paved the way for modern artificial intelligence.</P>\n")
	b.WriteString("  <IMG src=\"placeholder.png\" alt=\"A vintage black and white photo of an early computer.\"/>\n")
	fmt.Fprintf(&b, "</%s>\n\n", unit)

	b.WriteString("Now, generate the complete presentation content for the provided details.\n")
	return b.String()
}
