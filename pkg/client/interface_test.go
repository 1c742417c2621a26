package client

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsQuota(t *testing.T) {
	base := errors.New("429 too many requests")

	assert.True(t, IsQuota(QuotaError("m1", base)))
	assert.True(t, IsQuota(fmt.Errorf("attempt: %w", QuotaError("m1", base))))
	assert.False(t, IsQuota(OtherError("m1", base)))
	// text is never inspected
	assert.False(t, IsQuota(base))
	assert.False(t, IsQuota(nil))
}

func TestBackendErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	err := OtherError("gemini-2.0-flash", base)

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "gemini-2.0-flash")
	assert.Contains(t, err.Error(), "other")

	var be *BackendError
	assert.True(t, errors.As(err, &be))
	assert.Equal(t, FailureOther, be.Kind)
}

func TestFailureKindString(t *testing.T) {
	assert.Equal(t, "quota", FailureQuota.String())
	assert.Equal(t, "other", FailureOther.String())
}
