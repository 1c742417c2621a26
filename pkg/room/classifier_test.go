package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		labels []string
		want   string
	}{
		{"empty defaults to living room", nil, LivingRoom},
		{"unknown labels", []string{"vase", "clock"}, LivingRoom},
		{"bed", []string{"bed"}, Bedroom},
		{"bed beats toilet", []string{"toilet", "bed"}, Bedroom},
		{"toilet", []string{"toilet", "sink"}, Bathroom},
		{"refrigerator", []string{"refrigerator"}, Kitchen},
		{"oven", []string{"oven", "chair"}, Kitchen},
		{"microwave", []string{"microwave"}, Kitchen},
		{"sink alone", []string{"sink"}, Kitchen},
		{"couch", []string{"couch", "potted plant"}, LivingRoom},
		{"tv beats dining table", []string{"dining table", "tv"}, LivingRoom},
		{"dining table", []string{"dining table", "chair"}, DiningRoom},
		{"laptop", []string{"laptop"}, Office},
		{"chair", []string{"chair", "book"}, Office},
		{"kitchen beats living room", []string{"couch", "oven"}, Kitchen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.labels))
		})
	}
}

func TestClassifyOrderIndependent(t *testing.T) {
	a := Classify([]string{"chair", "couch", "bed"})
	b := Classify([]string{"bed", "couch", "chair"})
	assert.Equal(t, a, b)
	assert.Equal(t, Bedroom, a)
}
