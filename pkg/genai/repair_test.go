package genai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

const validJSON = `{
  "room_type": "living room",
  "room_summary": "A bright room with a couch.",
  "style_detected": "modern",
  "improvement_suggestions": [
    {"area": "Lighting", "suggestion": "Add a floor lamp.", "priority": "high"}
  ],
  "color_palette_recommendation": ["#FFFFFF", "#000", "#3b82f6"],
  "estimated_improvement_score": 7.5,
  "furniture_to_add": ["Industrial Arc Floor Lamp"],
  "furniture_to_remove": []
}`

func TestRepair(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"whitespace", "  \n{\"a\":1}\n ", `{"a":1}`},
		{"fenced with tag", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced without tag", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"bare json tag", "json {\"a\":1}", `{"a":1}`},
		{"single line fence", "```{\"a\":1}```", `{"a":1}`},
		{"chatter around", "Here you go:\n{\"a\":1}\nHope this helps", `{"a":1}`},
		{"comment-like string kept", `{"s":"a /* b */ c, ]"}`, `{"s":"a /* b */ c, ]"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Repair(tt.in))
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	a, err := ParseAnalysis("```json\n"+validJSON+"\n```", "office")
	require.NoError(t, err)

	assert.Equal(t, "living room", a.RoomType)
	assert.Equal(t, "modern", a.StyleDetected)
	assert.Equal(t, 7.5, a.ImprovementScore)
	require.Len(t, a.Suggestions, 1)
	assert.Equal(t, types.PriorityHigh, a.Suggestions[0].Priority)
	assert.Equal(t, []string{"#ffffff", "#000000", "#3b82f6"}, a.ColorPalette)
	assert.Equal(t, []string{"Industrial Arc Floor Lamp"}, a.FurnitureToAdd)
	assert.NotNil(t, a.FurnitureToRemove)
}

func TestParseAnalysisDefaults(t *testing.T) {
	a, err := ParseAnalysis(`{"color_palette_recommendation":["#111111","#222222","#333333"]}`, "kitchen")
	require.NoError(t, err)

	assert.Equal(t, "kitchen", a.RoomType)
	assert.Equal(t, "unknown", a.StyleDetected)
	assert.Equal(t, 5.0, a.ImprovementScore)
	assert.NotNil(t, a.Suggestions)
	assert.NotNil(t, a.FurnitureToAdd)
}

func TestParseAnalysisKeepsStringContent(t *testing.T) {
	in := `{"room_summary":"Sofa /* left */ and shelf, ]",
		"color_palette_recommendation":["#111111","#222222","#333333"]}`
	a, err := ParseAnalysis(in, "office")
	require.NoError(t, err)
	assert.Equal(t, "Sofa /* left */ and shelf, ]", a.RoomSummary)
}

func TestParseAnalysisRejects(t *testing.T) {
	palette := `"color_palette_recommendation":["#111111","#222222","#333333"]`
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "I cannot analyze this room."},
		{"broken json", `{"room_type": "office"`},
		{"wrong type", `{"estimated_improvement_score": "high", ` + palette + `}`},
		{"score too high", `{"estimated_improvement_score": 11, ` + palette + `}`},
		{"score too low", `{"estimated_improvement_score": 0.5, ` + palette + `}`},
		{"unknown priority", `{"improvement_suggestions":[{"area":"a","suggestion":"s","priority":"urgent"}], ` + palette + `}`},
		{"priority case", `{"improvement_suggestions":[{"area":"a","suggestion":"s","priority":"HIGH"}], ` + palette + `}`},
		{"priority padding", `{"improvement_suggestions":[{"area":"a","suggestion":"s","priority":" medium "}], ` + palette + `}`},
		{"trailing comma", `{"room_type":"office", ` + palette + `,}`},
		{"short palette", `{"color_palette_recommendation":["#111111","#222222"]}`},
		{"bad hex", `{"color_palette_recommendation":["#111111","#222222","blue"]}`},
		{"missing palette", `{"estimated_improvement_score": 6}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysis(tt.in, "office")
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}
