package source

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindowAt_ClampsDays(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		days int
		want int
	}{
		{"below minimum", 0, MinWindowDays},
		{"negative", -5, MinWindowDays},
		{"in range", 7, 7},
		{"at maximum", 90, 90},
		{"above maximum", 365, MaxWindowDays},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWindowAt(tt.days, now)
			assert.Equal(t, tt.want, w.Days)
		})
	}
}

func TestTimeWindow_Since(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	w := NewWindowAt(7, now)

	assert.Equal(t, now.AddDate(0, 0, -7), w.Since())
}

func TestTimeWindow_SymmetricRange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	start, end := NewWindowAt(14, now).SymmetricRange()
	assert.Equal(t, now.AddDate(0, 0, -7), start)
	assert.Equal(t, now.AddDate(0, 0, 7), end)

	// Odd day counts round the half-window down.
	start, end = NewWindowAt(7, now).SymmetricRange()
	assert.Equal(t, now.AddDate(0, 0, -3), start)
	assert.Equal(t, now.AddDate(0, 0, 3), end)
}

func TestIsNotConfigured(t *testing.T) {
	assert.True(t, IsNotConfigured(ErrNotConfigured))
	assert.True(t, IsNotConfigured(errors.Wrap(ErrNotConfigured, "tracker")))
	assert.False(t, IsNotConfigured(errors.New("boom")))
	assert.False(t, IsNotConfigured(nil))
}

func TestAPIError_Error(t *testing.T) {
	err := NewAPIError(NameCode, 403, "rate limit exceeded")
	assert.Equal(t, "code API error (status 403): rate limit exceeded", err.Error())
}

func TestUnavailableError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUnavailableError(NameChat, cause)

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "chat unavailable")

	var unavail *UnavailableError
	require.True(t, errors.As(err, &unavail))
	assert.Equal(t, NameChat, unavail.Source)
}
