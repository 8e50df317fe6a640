package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/zonewatch/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := pkgerrors.NewNotFoundError("building", "B-9")
	assert.Equal(t, "building with ID B-9 not found", err.Error())
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestUnknownZoneError(t *testing.T) {
	t.Run("matches both sentinels", func(t *testing.T) {
		err := pkgerrors.NewUnknownZoneError("zone-x")
		assert.Equal(t, `unknown zone "zone-x"`, err.Error())
		assert.True(t, pkgerrors.IsUnknownZone(err))
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.False(t, pkgerrors.IsInvalidWindow(err))
	})

	t.Run("wrapped error", func(t *testing.T) {
		wrapped := fmt.Errorf("set zone: %w", pkgerrors.NewUnknownZoneError("zone-x"))
		assert.True(t, pkgerrors.IsUnknownZone(wrapped))

		var target *pkgerrors.UnknownZoneError
		require.True(t, errors.As(wrapped, &target))
		assert.Equal(t, "zone-x", target.Key)
	})
}

func TestInvalidWindowError(t *testing.T) {
	err := pkgerrors.NewInvalidWindowError(2, []int{1, 3, 5, 12, 24})
	assert.Contains(t, err.Error(), "2h")
	assert.Contains(t, err.Error(), "[1 3 5 12 24]")
	assert.True(t, pkgerrors.IsInvalidWindow(err))
	assert.True(t, pkgerrors.IsValidationError(err))

	bare := &pkgerrors.InvalidWindowError{Hours: 7}
	assert.Equal(t, "invalid window 7h", bare.Error())
}

func TestAxisFetchError(t *testing.T) {
	base := pkgerrors.NewAPIError("peak-occupancy", 503, "upstream down")
	err := pkgerrors.NewAxisFetchError("peak-occupancy", "Zone A", base)

	assert.Contains(t, err.Error(), "peak-occupancy")
	assert.Contains(t, err.Error(), "Zone A")
	assert.True(t, pkgerrors.IsAxisFetch(err))
	assert.True(t, errors.Is(err, pkgerrors.ErrProviderUnavailable))
	assert.Equal(t, base, errors.Unwrap(err))

	noZone := pkgerrors.NewAxisFetchError("avg-dwell-time", "", errors.New("boom"))
	assert.Equal(t, "fetch avg-dwell-time: boom", noZone.Error())
}

func TestMalformedRecordError(t *testing.T) {
	err := pkgerrors.NewMalformedRecordError("activity-level", 3, "missing building key")
	assert.Equal(t, "malformed activity-level record at index 3: missing building key", err.Error())
	assert.True(t, pkgerrors.IsMalformedRecord(err))
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		rateLimited bool
		unavailable bool
	}{
		{"rate limited", 429, true, false},
		{"server error", 502, false, true},
		{"client error", 400, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkgerrors.NewAPIError("activity-level", tt.status, "nope")
			assert.Equal(t, tt.rateLimited, pkgerrors.IsRateLimited(err))
			assert.Equal(t, tt.unavailable, errors.Is(err, pkgerrors.ErrProviderUnavailable))
			assert.Contains(t, err.Error(), fmt.Sprintf("status %d", tt.status))
		})
	}
}

func TestWrapHelpers(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapIO("read", "catalog.yaml", nil))
	assert.Nil(t, pkgerrors.WrapParse("yaml", "catalog.yaml", nil))

	base := errors.New("unexpected EOF")
	parseErr := pkgerrors.WrapParse("yaml", "catalog.yaml", base)
	assert.Equal(t, "parse error in yaml file catalog.yaml: unexpected EOF", parseErr.Error())
	assert.ErrorIs(t, parseErr, base)

	ioErr := pkgerrors.WrapIO("read", "catalog.yaml", base)
	assert.Contains(t, ioErr.Error(), "IO error during read of catalog.yaml")
	assert.ErrorIs(t, ioErr, base)
}

func TestResourceError(t *testing.T) {
	assert.Nil(t, pkgerrors.WrapResource("load", "catalog", "", nil))

	base := pkgerrors.NewUnknownZoneError("zone-x")
	err := pkgerrors.WrapResource("load", "catalog", "zones.yaml", base)
	assert.Equal(t, `failed to load catalog zones.yaml: unknown zone "zone-x"`, err.Error())
	assert.True(t, pkgerrors.IsUnknownZone(err))

	noID := pkgerrors.NewResourceError("create", "client", "", errors.New("boom"))
	assert.Equal(t, "failed to create client: boom", noID.Error())
}
