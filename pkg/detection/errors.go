package detection

import "errors"

var (
	// ErrInvalidImage is returned when the input bytes cannot be decoded
	ErrInvalidImage = errors.New("could not decode the uploaded image")

	// ErrPayloadTooLarge is returned when the input exceeds the byte ceiling
	ErrPayloadTooLarge = errors.New("image exceeds maximum allowed size")

	// ErrDetectionFailed is returned when the detector capability fails
	ErrDetectionFailed = errors.New("object detection failed")
)

// IsClientFault reports whether err was caused by the caller's input
func IsClientFault(err error) bool {
	return errors.Is(err, ErrInvalidImage) || errors.Is(err, ErrPayloadTooLarge)
}
