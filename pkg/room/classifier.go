// Package room infers the room type from detected object labels.
package room

// Room types produced by Classify
const (
	Bedroom    = "bedroom"
	Bathroom   = "bathroom"
	Kitchen    = "kitchen"
	LivingRoom = "living room"
	DiningRoom = "dining room"
	Office     = "office"
)

type rule struct {
	room string
	any  []string
	// none lists labels that must be absent for the rule to match
	none []string
}

// Evaluated in order; the first matching rule wins.
var rules = []rule{
	{room: Bedroom, any: []string{"bed"}},
	{room: Bathroom, any: []string{"toilet"}},
	{room: Kitchen, any: []string{"refrigerator", "oven", "microwave"}},
	{room: Kitchen, any: []string{"sink"}, none: []string{"toilet"}},
	{room: LivingRoom, any: []string{"couch", "tv"}},
	{room: DiningRoom, any: []string{"dining table"}},
	{room: Office, any: []string{"laptop", "chair"}},
}

// Classify returns the room type for a set of labels. It never fails and
// defaults to living room when no rule matches.
func Classify(labels []string) string {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[l] = true
	}

	for _, r := range rules {
		if r.matches(set) {
			return r.room
		}
	}
	return LivingRoom
}

func (r rule) matches(set map[string]bool) bool {
	for _, l := range r.none {
		if set[l] {
			return false
		}
	}
	for _, l := range r.any {
		if set[l] {
			return true
		}
	}
	return false
}
