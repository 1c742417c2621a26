package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	MinImprovementScore = 1.0
	MaxImprovementScore = 10.0
	PaletteSize         = 3
)

// ErrInvalidAnalysis is returned when a RoomAnalysis does not match the schema
var ErrInvalidAnalysis = errors.New("invalid room analysis")

// Validate checks the structural invariants of a RoomAnalysis
func (a RoomAnalysis) Validate() error {
	if a.ImprovementScore < MinImprovementScore || a.ImprovementScore > MaxImprovementScore {
		return fmt.Errorf("%w: improvement score %.2f outside [%.0f,%.0f]",
			ErrInvalidAnalysis, a.ImprovementScore, MinImprovementScore, MaxImprovementScore)
	}

	for i, s := range a.Suggestions {
		if !s.Priority.Valid() {
			return fmt.Errorf("%w: suggestion %d has unknown priority %q", ErrInvalidAnalysis, i, s.Priority)
		}
	}

	if len(a.ColorPalette) != PaletteSize {
		return fmt.Errorf("%w: color palette has %d entries, want %d", ErrInvalidAnalysis, len(a.ColorPalette), PaletteSize)
	}
	for i, hex := range a.ColorPalette {
		if !IsHexColor(hex) {
			return fmt.Errorf("%w: palette entry %d (%q) is not a hex color", ErrInvalidAnalysis, i, hex)
		}
	}

	return nil
}

// IsHexColor reports whether s is a #rgb or #rrggbb color
func IsHexColor(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) != 4 && len(s) != 7 {
		return false
	}
	_, err := colorful.Hex(s)
	return err == nil
}

// NormalizeHex returns the lowercase #rrggbb form of a valid hex color
func NormalizeHex(s string) string {
	c, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return s
	}
	return c.Hex()
}
