// Package genai produces the narrative room analysis, either from a chain of
// generative models or from a deterministic fallback built on detection data.
package genai

import (
	"fmt"
	"strings"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// Styles the model is asked to choose from
var Styles = []string{
	"minimalist", "modern", "traditional", "industrial", "bohemian",
	"scandinavian", "cluttered", "sparse", "eclectic",
}

// BuildPrompt renders the interior design prompt. The output depends only on
// its inputs.
func BuildPrompt(objects []types.DetectedObject, roomType string, recs []types.ProductMatch) string {
	var b strings.Builder

	b.WriteString("You are an expert interior designer and space analyst. ")
	b.WriteString("Analyze the following room data and provide improvement suggestions.\n\n")

	b.WriteString("DETECTED OBJECTS:\n")
	if len(objects) == 0 {
		b.WriteString("- No furniture-relevant objects detected\n")
	}
	for _, o := range objects {
		fmt.Fprintf(&b, "- %s (confidence %.0f%%)\n", o.Label, o.Confidence*100)
	}

	fmt.Fprintf(&b, "\nINFERRED ROOM TYPE: %s\n\n", roomType)

	b.WriteString("RECOMMENDED PRODUCTS FROM OUR CATALOG:\n")
	if len(recs) == 0 {
		b.WriteString("- No recommendations available\n")
	}
	for _, r := range recs {
		fmt.Fprintf(&b, "- %s: %s (style: %s)\n", r.Name, r.Description, r.Style)
	}

	b.WriteString("\nBased on this analysis, respond ONLY with a valid JSON object ")
	b.WriteString("(no markdown, no code fences, no extra text). ")
	b.WriteString("The JSON must have exactly this structure:\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"room_type\": %q,\n", roomType)
	b.WriteString("  \"room_summary\": \"2-3 sentences describing the current state of the room\",\n")
	fmt.Fprintf(&b, "  \"style_detected\": \"one of: %s\",\n", strings.Join(Styles, ", "))
	b.WriteString("  \"improvement_suggestions\": [\n")
	b.WriteString("    { \"area\": \"specific area\", \"suggestion\": \"actionable suggestion\", \"priority\": \"high|medium|low\" }\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"color_palette_recommendation\": [\"#hex1\", \"#hex2\", \"#hex3\"],\n")
	b.WriteString("  \"estimated_improvement_score\": <number 1-10>,\n")
	b.WriteString("  \"furniture_to_add\": [\"item1\", \"item2\"],\n")
	b.WriteString("  \"furniture_to_remove\": [\"item1\"]\n")
	b.WriteString("}\n\n")
	b.WriteString("Respond ONLY in valid JSON. No markdown formatting, no code blocks, no explanations.")

	return b.String()
}
