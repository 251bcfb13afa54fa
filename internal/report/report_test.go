package report

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/gesturehull/internal/gesture"
)

func TestRecorder_Summary(t *testing.T) {
	r := NewRecorder(0)
	r.Add(1, 50, gesture.TwoFingers, true)
	r.Add(2, 10, gesture.TwoFingers, true)
	r.Add(3, 0, gesture.Unknown, false)
	r.Add(4, 40, gesture.ClosedFist, true)
	r.Add(5, 30, gesture.ClosedFist, true)
	r.Add(6, 20, gesture.ClosedFist, true)

	s := r.Summary()
	assert.Equal(t, 6, s.Frames)
	assert.Equal(t, 1, s.NoRegionFrames)
	assert.InDelta(t, 30.0, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(250), s.StdDev, 1e-9)
	assert.Equal(t, 30.0, s.Median)
	assert.Equal(t, 50.0, s.P90)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 50.0, s.Max)
	assert.Equal(t, map[gesture.Shape]int{
		gesture.TwoFingers: 2,
		gesture.ClosedFist: 3,
		gesture.Unknown:    1,
	}, s.ShapeCounts)
}

func TestRecorder_SummaryEmpty(t *testing.T) {
	s := NewRecorder(0).Summary()
	assert.Zero(t, s.Frames)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.StdDev)
	assert.Empty(t, s.ShapeCounts)
}

func TestRecorder_SummarySingleSample(t *testing.T) {
	r := NewRecorder(0)
	r.Add(1, 75000, gesture.TwoFingers, true)

	s := r.Summary()
	assert.Equal(t, 75000.0, s.Mean)
	assert.Zero(t, s.StdDev)
	assert.False(t, math.IsNaN(s.StdDev))
}

func TestRecorder_Limit(t *testing.T) {
	r := NewRecorder(3)
	for i := int64(1); i <= 5; i++ {
		r.Add(i, float64(i*1000), gesture.ClosedFist, true)
	}

	samples := r.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, int64(3), samples[0].Frame)
	assert.Equal(t, int64(5), samples[2].Frame)

	// Totals still cover every frame.
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, 5, r.Summary().ShapeCounts[gesture.ClosedFist])
}

func TestRecorder_LimitWrapsInOrder(t *testing.T) {
	r := NewRecorder(4)
	for i := int64(1); i <= 11; i++ {
		r.Add(i, float64(i), gesture.ClosedFist, true)
	}

	var frames []int64
	for _, s := range r.Samples() {
		frames = append(frames, s.Frame)
	}
	assert.Equal(t, []int64{8, 9, 10, 11}, frames)
}

func TestRecorder_SummaryCoversEvictedFrames(t *testing.T) {
	r := NewRecorder(2)
	for _, area := range []float64{10, 20, 30, 40, 50} {
		r.Add(int64(area), area, gesture.ClosedFist, true)
	}
	r.Add(6, 0, gesture.Unknown, false)

	s := r.Summary()
	assert.InDelta(t, 30.0, s.Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(250), s.StdDev, 1e-9)
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 50.0, s.Max)

	// Only frame 5 and the no-region frame 6 are retained.
	assert.Equal(t, 50.0, s.Median)
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder(0)
	r.Add(1, 20000, gesture.ClosedFist, true)
	r.Reset()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.Samples())
}

func TestRecorder_Concurrent(t *testing.T) {
	r := NewRecorder(100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(base int64) {
			defer wg.Done()
			for j := int64(0); j < 50; j++ {
				r.Add(base*50+j, 60000, gesture.TwoFingers, true)
				_ = r.Summary()
			}
		}(int64(i))
	}
	wg.Wait()

	assert.Equal(t, 500, r.Len())
	assert.Len(t, r.Samples(), 100)
}

func TestRecorder_WritePlot(t *testing.T) {
	r := NewRecorder(0)
	for i := int64(0); i < 30; i++ {
		area := 20000.0 + float64(i)*4000
		r.Add(i, area, gesture.DefaultThresholds().Classify(area), true)
	}
	r.Add(30, 0, gesture.Unknown, false)

	path := filepath.Join(t.TempDir(), "area.png")
	require.NoError(t, r.WritePlot(path, gesture.DefaultThresholds()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestRecorder_WritePlotNoSamples(t *testing.T) {
	r := NewRecorder(0)
	r.Add(0, 0, gesture.Unknown, false)

	err := r.WritePlot(filepath.Join(t.TempDir(), "area.png"), gesture.DefaultThresholds())
	assert.True(t, errors.Is(err, ErrNoSamples))
}
