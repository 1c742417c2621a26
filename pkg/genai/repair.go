package genai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// ErrMalformedResponse is returned when model output cannot be turned into a
// valid RoomAnalysis
var ErrMalformedResponse = errors.New("malformed model response")

// defaultScore applies when the model omits the score
const defaultScore = 5.0

// Repair strips the decoration models like to wrap JSON in: code fences with
// an optional language tag and a bare leading "json" tag. Text outside the
// outermost braces is dropped; the object itself is never rewritten.
func Repair(raw string) string {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "```") {
		if i := strings.Index(raw, "\n"); i >= 0 {
			raw = raw[i+1:]
		} else {
			raw = raw[3:]
		}
	}
	raw = strings.TrimSpace(raw)
	if strings.HasSuffix(raw, "```") {
		raw = strings.TrimSpace(raw[:len(raw)-3])
	}
	if strings.HasPrefix(raw, "json") {
		raw = strings.TrimSpace(raw[4:])
	}

	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}
	return strings.TrimSpace(raw)
}

type wireAnalysis struct {
	RoomType          string                        `json:"room_type"`
	RoomSummary       string                        `json:"room_summary"`
	StyleDetected     string                        `json:"style_detected"`
	Suggestions       []types.ImprovementSuggestion `json:"improvement_suggestions"`
	ColorPalette      []string                      `json:"color_palette_recommendation"`
	ImprovementScore  *float64                      `json:"estimated_improvement_score"`
	FurnitureToAdd    []string                      `json:"furniture_to_add"`
	FurnitureToRemove []string                      `json:"furniture_to_remove"`
}

// ParseAnalysis repairs and decodes a model response, then validates it.
// roomType fills in a missing room_type.
func ParseAnalysis(raw, roomType string) (types.RoomAnalysis, error) {
	text := Repair(raw)
	if !strings.HasPrefix(text, "{") {
		return types.RoomAnalysis{}, fmt.Errorf("%w: no JSON object found", ErrMalformedResponse)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	var w wireAnalysis
	if err := dec.Decode(&w); err != nil {
		return types.RoomAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if dec.More() {
		return types.RoomAnalysis{}, fmt.Errorf("%w: trailing data after JSON object", ErrMalformedResponse)
	}

	a := types.RoomAnalysis{
		RoomType:          w.RoomType,
		RoomSummary:       w.RoomSummary,
		StyleDetected:     w.StyleDetected,
		Suggestions:       w.Suggestions,
		ColorPalette:      w.ColorPalette,
		ImprovementScore:  defaultScore,
		FurnitureToAdd:    w.FurnitureToAdd,
		FurnitureToRemove: w.FurnitureToRemove,
	}
	if w.ImprovementScore != nil {
		a.ImprovementScore = *w.ImprovementScore
	}
	if a.RoomType == "" {
		a.RoomType = roomType
	}
	if a.StyleDetected == "" {
		a.StyleDetected = "unknown"
	}
	normalize(&a)

	if err := a.Validate(); err != nil {
		return types.RoomAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return a, nil
}

func normalize(a *types.RoomAnalysis) {
	if a.Suggestions == nil {
		a.Suggestions = []types.ImprovementSuggestion{}
	}
	for i, c := range a.ColorPalette {
		if types.IsHexColor(c) {
			a.ColorPalette[i] = types.NormalizeHex(c)
		}
	}
	if a.FurnitureToAdd == nil {
		a.FurnitureToAdd = []string{}
	}
	if a.FurnitureToRemove == nil {
		a.FurnitureToRemove = []string{}
	}
}
