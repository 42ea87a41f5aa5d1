package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jamesainslie/spacescan/pkg/spacescan/types"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		name    string
		scanned uint64
		total   uint64
		want    int
	}{
		{name: "nothing scanned", scanned: 0, total: 100, want: 0},
		{name: "unknown total", scanned: 50, total: 0, want: 0},
		{name: "half", scanned: 50, total: 100, want: 50},
		{name: "floors", scanned: 999, total: 1000, want: 99},
		{name: "exact", scanned: 100, total: 100, want: 100},
		{name: "overshoot clamps", scanned: 300, total: 100, want: 100},
		{name: "tiny share of big volume", scanned: 150 * types.MiB, total: 500 * types.GiB, want: 0},
		{name: "huge values", scanned: 1 << 62, total: 1 << 63, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percent(tt.scanned, tt.total)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestRemaining(t *testing.T) {
	rem, ok := Remaining(25, 100, 10*time.Second)
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, rem)

	rem, ok = Remaining(100, 100, 10*time.Second)
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), rem)

	rem, ok = Remaining(200, 100, 10*time.Second)
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), rem, "overshoot never yields a negative remaining time")

	_, ok = Remaining(0, 100, time.Second)
	assert.False(t, ok)

	_, ok = Remaining(10, 0, time.Second)
	assert.False(t, ok)
}

func TestEstimate_WithETA(t *testing.T) {
	now := time.Date(2024, 6, 15, 10, 0, 0, 0, time.Local)
	e := &Estimator{Now: func() time.Time { return now }}

	snap := e.Estimate(50, 100, time.Minute, "/data")

	assert.Equal(t, 50, snap.Percent)
	require.NotNil(t, snap.ETA)
	assert.Equal(t, now.Add(time.Minute), *snap.ETA)
	assert.Equal(t, "Scanning /data... 50% complete. ETA: 10:01:00", snap.Status)
	assert.Equal(t, uint64(50), snap.ScannedBytes)
	assert.Equal(t, uint64(100), snap.TotalBytes)
	assert.Equal(t, "/data", snap.CurrentVolume)
}

func TestEstimate_NoETAWhenUndefined(t *testing.T) {
	e := New()

	tests := []struct {
		name    string
		scanned uint64
		total   uint64
	}{
		{name: "nothing scanned", scanned: 0, total: 100},
		{name: "zero total", scanned: 100, total: 0},
		{name: "both zero", scanned: 0, total: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := e.Estimate(tt.scanned, tt.total, time.Second, "/")
			assert.Nil(t, snap.ETA)
			assert.Equal(t, "Scanning /...", snap.Status)
			assert.Equal(t, 0, snap.Percent)
		})
	}
}

func TestEstimate_ETAIffBothPositive(t *testing.T) {
	e := New()
	for _, scanned := range []uint64{0, 1, 1000} {
		for _, total := range []uint64{0, 1, 1000} {
			snap := e.Estimate(scanned, total, time.Second, "/")
			want := scanned > 0 && total > 0
			assert.Equal(t, want, snap.HasETA(), "scanned=%d total=%d", scanned, total)
		}
	}
}

func TestStatus(t *testing.T) {
	eta := time.Date(2024, 1, 1, 23, 59, 5, 0, time.Local)
	assert.Equal(t, "Scanning C:\\... 42% complete. ETA: 23:59:05", Status(`C:\`, 42, &eta))
	assert.Equal(t, "Scanning /home...", Status("/home", 42, nil))
}
