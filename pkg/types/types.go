package types

// BBox is a pixel-space bounding box in [x1, y1, x2, y2] order
type BBox [4]float64

// Valid reports whether the box has positive width and height
func (b BBox) Valid() bool {
	return b[0] < b[2] && b[1] < b[3]
}

// RawDetection is a single unfiltered result from the object detector
type RawDetection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// DetectedObject is a room-relevant detection kept by the detection filter
type DetectedObject struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
}

// IndexMatch is a nearest-neighbor hit returned by a vector index
type IndexMatch struct {
	ID       string            `json:"id"`
	Distance float64           `json:"distance"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
}

// ProductMatch is a catalog product recommended for a room
type ProductMatch struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Category        string  `json:"category"`
	Style           string  `json:"style"`
	RoomType        string  `json:"room_type"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Priority of an improvement suggestion
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the three known priorities
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// ImprovementSuggestion is one actionable recommendation for the room
type ImprovementSuggestion struct {
	Area       string   `json:"area"`
	Suggestion string   `json:"suggestion"`
	Priority   Priority `json:"priority"`
}

// RoomAnalysis is the narrative critique of a room, either parsed from a
// generative backend or synthesized from detection data
type RoomAnalysis struct {
	RoomType          string                  `json:"room_type"`
	RoomSummary       string                  `json:"room_summary"`
	StyleDetected     string                  `json:"style_detected"`
	Suggestions       []ImprovementSuggestion `json:"improvement_suggestions"`
	ColorPalette      []string                `json:"color_palette_recommendation"`
	ImprovementScore  float64                 `json:"estimated_improvement_score"`
	FurnitureToAdd    []string                `json:"furniture_to_add"`
	FurnitureToRemove []string                `json:"furniture_to_remove"`
}

// AnalysisResult is the output of a single pipeline run
type AnalysisResult struct {
	DetectedObjects []DetectedObject `json:"detected_objects"`
	Recommendations []ProductMatch   `json:"vector_recommendations"`
	Analysis        RoomAnalysis     `json:"analysis"`
	AnnotatedImage  []byte           `json:"annotated_image"`
	ImageURL        *string          `json:"image_url"`
}

// Labels returns the detected labels in emission order, duplicates included
func (r AnalysisResult) Labels() []string {
	return ObjectLabels(r.DetectedObjects)
}

// ObjectLabels returns the labels of objects in order
func ObjectLabels(objects []DetectedObject) []string {
	labels := make([]string, 0, len(objects))
	for _, o := range objects {
		labels = append(labels, o.Label)
	}
	return labels
}

// UniqueLabels returns labels with duplicates removed, keeping first occurrence order
func UniqueLabels(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
