package genai

import (
	"fmt"
	"strings"

	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// DefaultPalette is used whenever no model supplies one
var DefaultPalette = []string{"#3b82f6", "#1e293b", "#f8fafc"}

const (
	fallbackStyle      = "undetermined"
	sparseLabelCount   = 3
	plantLabel         = "potted plant"
	fallbackAddedItems = 3
)

// Fallback builds a RoomAnalysis from detection and recommendation data alone.
// The result always passes Validate.
func Fallback(objects []types.DetectedObject, recs []types.ProductMatch, roomType string) types.RoomAnalysis {
	labels := types.UniqueLabels(types.ObjectLabels(objects))

	contents := "no detected furniture"
	if len(labels) > 0 {
		contents = strings.Join(labels, ", ")
	}

	suggestions := []types.ImprovementSuggestion{}
	if len(labels) < sparseLabelCount {
		suggestions = append(suggestions, types.ImprovementSuggestion{
			Area:       "General",
			Suggestion: "The room appears sparse. Consider adding more furniture for a complete look.",
			Priority:   types.PriorityMedium,
		})
	}
	if !contains(labels, plantLabel) {
		suggestions = append(suggestions, types.ImprovementSuggestion{
			Area:       "Greenery",
			Suggestion: "Add indoor plants to bring life and color to the space.",
			Priority:   types.PriorityLow,
		})
	}

	add := make([]string, 0, fallbackAddedItems)
	for i := 0; i < len(recs) && i < fallbackAddedItems; i++ {
		add = append(add, recs[i].Name)
	}

	return types.RoomAnalysis{
		RoomType: roomType,
		RoomSummary: fmt.Sprintf("A %s containing %s. Analysis generated from computer vision results (AI summary unavailable).",
			roomType, contents),
		StyleDetected:     fallbackStyle,
		Suggestions:       suggestions,
		ColorPalette:      append([]string(nil), DefaultPalette...),
		ImprovementScore:  defaultScore,
		FurnitureToAdd:    add,
		FurnitureToRemove: []string{},
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
