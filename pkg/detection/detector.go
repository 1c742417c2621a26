package detection

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/pkg/client"
	"github.com/tarunsinghofficial/visionbackend/pkg/processing"
	"github.com/tarunsinghofficial/visionbackend/pkg/types"
)

// DefaultMaxImageBytes is the default upload ceiling (10 MiB)
const DefaultMaxImageBytes = 10 * 1024 * 1024

// RelevantLabels are the detector categories considered room-relevant
var RelevantLabels = []string{
	"chair", "couch", "bed", "dining table", "tv", "laptop",
	"refrigerator", "oven", "microwave", "sink", "toilet",
	"potted plant", "clock", "vase", "book", "bottle",
}

// Config holds configuration for the detection stage
type Config struct {
	MaxImageBytes     int
	AllowList         []string
	AnnotationFormat  string
	AnnotationQuality int
}

// DefaultConfig returns the default detection configuration
func DefaultConfig() Config {
	return Config{
		MaxImageBytes:     DefaultMaxImageBytes,
		AllowList:         RelevantLabels,
		AnnotationFormat:  processing.FormatJPEG,
		AnnotationQuality: 85,
	}
}

// Result is the output of the detection stage
type Result struct {
	Objects        []types.DetectedObject
	AnnotatedImage []byte
	ContentType    string
	Info           processing.ImageInfo
}

// Detector filters raw detections down to room-relevant objects and renders
// an annotated copy of the image
type Detector struct {
	client    client.ObjectDetector
	processor *processing.Processor
	config    Config
	allowed   map[string]struct{}
	logger    *zap.Logger
}

// NewDetector creates a new detector with default configuration
func NewDetector(c client.ObjectDetector, logger *zap.Logger) *Detector {
	return NewDetectorWithConfig(c, DefaultConfig(), logger)
}

// NewDetectorWithConfig creates a new detector with custom configuration
func NewDetectorWithConfig(c client.ObjectDetector, config Config, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxImageBytes <= 0 {
		config.MaxImageBytes = DefaultMaxImageBytes
	}
	if len(config.AllowList) == 0 {
		config.AllowList = RelevantLabels
	}
	if config.AnnotationQuality <= 0 || config.AnnotationQuality > 100 {
		config.AnnotationQuality = 85
	}

	allowed := make(map[string]struct{}, len(config.AllowList))
	for _, l := range config.AllowList {
		allowed[l] = struct{}{}
	}

	return &Detector{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
		allowed:   allowed,
		logger:    logger,
	}
}

// Allowed reports whether label is in the allow-list
func (d *Detector) Allowed(label string) bool {
	_, ok := d.allowed[label]
	return ok
}

// Detect runs the detector on image and returns the kept objects together
// with the annotated image
func (d *Detector) Detect(ctx context.Context, image []byte) (*Result, error) {
	// Size is checked before any decode work
	if len(image) > d.config.MaxImageBytes {
		return nil, fmt.Errorf("%w: %.1f MB exceeds %.0f MB", ErrPayloadTooLarge,
			float64(len(image))/1024/1024, float64(d.config.MaxImageBytes)/1024/1024)
	}

	img, err := d.processor.DecodeImage(image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	raw, err := d.client.Detect(ctx, image)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionFailed, err)
	}

	objects := d.Filter(raw)

	annotations := make([]processing.Annotation, 0, len(objects))
	for _, o := range objects {
		annotations = append(annotations, processing.Annotation{
			Box:     o.BBox,
			Caption: Caption(o),
		})
	}

	annotated := d.processor.Annotate(img, annotations)
	encoded, err := d.processor.EncodeImage(annotated, d.config.AnnotationFormat, d.config.AnnotationQuality)
	if err != nil {
		return nil, fmt.Errorf("encoding annotated image: %w", err)
	}

	d.logger.Info("detected relevant objects",
		zap.Int("raw", len(raw)),
		zap.Int("kept", len(objects)),
	)

	return &Result{
		Objects:        objects,
		AnnotatedImage: encoded,
		ContentType:    processing.ContentType(d.config.AnnotationFormat),
		Info:           d.processor.GetImageInfo(img),
	}, nil
}

// Filter keeps allow-listed detections in emission order, rounding
// confidence to 3 decimals and box coordinates to 1 decimal
func (d *Detector) Filter(raw []types.RawDetection) []types.DetectedObject {
	objects := make([]types.DetectedObject, 0, len(raw))
	for _, r := range raw {
		if !d.Allowed(r.Label) {
			continue
		}

		box := types.BBox{round(r.BBox[0], 1), round(r.BBox[1], 1), round(r.BBox[2], 1), round(r.BBox[3], 1)}
		if !box.Valid() {
			d.logger.Debug("dropping degenerate box",
				zap.String("label", r.Label),
				zap.Float64s("bbox", r.BBox[:]),
			)
			continue
		}

		objects = append(objects, types.DetectedObject{
			Label:      r.Label,
			Confidence: clamp(round(r.Confidence, 3), 0, 1),
			BBox:       box,
		})
	}
	return objects
}

// Caption returns the annotation text for an object, e.g. "couch 91%"
func Caption(o types.DetectedObject) string {
	return fmt.Sprintf("%s %.0f%%", o.Label, o.Confidence*100)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// clamp ensures a value is within the given bounds
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
