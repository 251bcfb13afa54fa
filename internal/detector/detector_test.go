package detector

import (
	"errors"
	"image"
	"testing"

	"github.com/ayusman/gesturehull/internal/testutil"
	"gocv.io/x/gocv"
)

func TestDefaultRange(t *testing.T) {
	r := DefaultRange()
	want := HSVRange{HMin: 63, HMax: 255, SMin: 136, SMax: 255, VMin: 38, VMax: 157}
	if r != want {
		t.Errorf("DefaultRange() = %+v, want %+v", r, want)
	}
	if err := r.Validate(); err != nil {
		t.Errorf("DefaultRange().Validate() error = %v", err)
	}
}

func TestHSVRange_Validate(t *testing.T) {
	tests := []struct {
		name    string
		rng     HSVRange
		wantErr bool
	}{
		{name: "full range", rng: HSVRange{HMax: 255, SMax: 255, VMax: 255}, wantErr: false},
		{name: "single value", rng: HSVRange{HMin: 9, HMax: 9, SMin: 9, SMax: 9, VMin: 9, VMax: 9}, wantErr: false},
		{name: "hue inverted", rng: HSVRange{HMin: 100, HMax: 50, SMax: 255, VMax: 255}, wantErr: true},
		{name: "saturation inverted", rng: HSVRange{HMax: 255, SMin: 200, SMax: 10, VMax: 255}, wantErr: true},
		{name: "value inverted", rng: HSVRange{HMax: 255, SMax: 255, VMin: 1, VMax: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rng.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRange) {
				t.Errorf("Validate() error = %v, want ErrInvalidRange", err)
			}
		})
	}
}

func TestHSVRange_Contains(t *testing.T) {
	r := DefaultRange()

	if !r.Contains(105, 204, 150) {
		t.Error("glove colour should be inside the default range")
	}
	if r.Contains(0, 229, 200) {
		t.Error("red should be outside the default range")
	}
	if r.Contains(105, 204, 158) {
		t.Error("value above v_max should be outside")
	}
}

func TestHSVRange_Scalars(t *testing.T) {
	r := DefaultRange()

	lo := r.Lower()
	if lo.Val1 != 63 || lo.Val2 != 136 || lo.Val3 != 38 {
		t.Errorf("Lower() = %+v", lo)
	}

	hi := r.Upper()
	if hi.Val1 != 255 || hi.Val2 != 255 || hi.Val3 != 157 {
		t.Errorf("Upper() = %+v", hi)
	}
}

func TestNewHSVDetector_BlurSize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{5, 5},
		{7, 7},
		{0, DefaultBlurSize},
		{-3, DefaultBlurSize},
		{4, DefaultBlurSize},
	}

	for _, tt := range tests {
		d := NewHSVDetector(Config{BlurSize: tt.in})
		if got := d.BlurSize(); got != tt.want {
			t.Errorf("NewHSVDetector(%d).BlurSize() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHSVDetector_Detect_Rectangles(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	d := NewHSVDetector(DefaultConfig())
	defer d.Close()

	tests := []struct {
		name    string
		rect    image.Rectangle
		minArea float64
		maxArea float64
	}{
		{name: "five fingers", rect: testutil.FiveFingersRect, minArea: 100000, maxArea: 160000},
		{name: "two fingers", rect: testutil.TwoFingersRect, minArea: 50000, maxArea: 100000},
		{name: "closed fist", rect: testutil.ClosedFistRect, minArea: 10000, maxArea: 50000},
		{name: "speck", rect: testutil.SpeckRect, minArea: 0, maxArea: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := testutil.GloveRectFrame(tt.rect)
			defer frame.Close()

			region, err := d.Detect(&frame, DefaultRange())
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}

			if region.HullArea <= tt.minArea || region.HullArea >= tt.maxArea {
				t.Errorf("HullArea = %f, want in (%f, %f)", region.HullArea, tt.minArea, tt.maxArea)
			}
			if len(region.Hull) < 3 {
				t.Errorf("hull has %d points, want at least 3", len(region.Hull))
			}
			if !region.Bounds.Overlaps(tt.rect) {
				t.Errorf("Bounds %v do not overlap drawn rect %v", region.Bounds, tt.rect)
			}
		})
	}
}

func TestHSVDetector_Detect_NoRegion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	d := NewHSVDetector(DefaultConfig())

	t.Run("black frame", func(t *testing.T) {
		frame := testutil.BlankFrame()
		defer frame.Close()

		region, err := d.Detect(&frame, DefaultRange())
		if !errors.Is(err, ErrNoRegion) {
			t.Errorf("Detect() error = %v, want ErrNoRegion", err)
		}
		if region != nil {
			t.Errorf("Detect() region = %+v, want nil", region)
		}
	})

	t.Run("colour outside range", func(t *testing.T) {
		frame := testutil.RectFrame(testutil.FiveFingersRect, testutil.OffColor)
		defer frame.Close()

		if _, err := d.Detect(&frame, DefaultRange()); !errors.Is(err, ErrNoRegion) {
			t.Errorf("Detect() error = %v, want ErrNoRegion", err)
		}
	})
}

func TestHSVDetector_Detect_PicksLargest(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := testutil.GloveRectFrame(image.Rect(20, 20, 60, 60))
	defer frame.Close()
	gocv.Rectangle(&frame, testutil.TwoFingersRect, testutil.GloveColor, -1)

	d := NewHSVDetector(DefaultConfig())
	region, err := d.Detect(&frame, DefaultRange())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if !region.Bounds.Overlaps(testutil.TwoFingersRect) {
		t.Errorf("expected the larger rectangle to win, got bounds %v", region.Bounds)
	}
	if region.HullArea < 50000 {
		t.Errorf("HullArea = %f, expected the large region", region.HullArea)
	}
}

func TestHSVDetector_Detect_HullCoversConcaveRegion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := testutil.PolygonFrame(testutil.LShape())
	defer frame.Close()

	d := NewHSVDetector(DefaultConfig())
	region, err := d.Detect(&frame, DefaultRange())
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if region.HullArea <= region.ContourArea {
		t.Errorf("hull area %f should exceed contour area %f for an L shape", region.HullArea, region.ContourArea)
	}
	if s := region.Solidity(); s <= 0 || s >= 1 {
		t.Errorf("Solidity() = %f, want in (0, 1)", s)
	}
}

func TestHSVDetector_Detect_EmptyFrame(t *testing.T) {
	d := NewHSVDetector(DefaultConfig())

	if _, err := d.Detect(nil, DefaultRange()); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Detect(nil) error = %v, want ErrEmptyFrame", err)
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if _, err := d.Detect(&empty, DefaultRange()); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Detect(empty) error = %v, want ErrEmptyFrame", err)
	}
}

func TestHSVDetector_Mask(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	frame := testutil.GloveRectFrame(testutil.ClosedFistRect)
	defer frame.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	d := NewHSVDetector(DefaultConfig())
	if err := d.Mask(&frame, DefaultRange(), &mask); err != nil {
		t.Fatalf("Mask() error = %v", err)
	}

	if mask.Channels() != 1 {
		t.Errorf("mask channels = %d, want 1", mask.Channels())
	}
	if n := gocv.CountNonZero(mask); n < 30000 {
		t.Errorf("mask has %d non-zero pixels, want at least the drawn 30000", n)
	}
}

func TestRegion_Solidity(t *testing.T) {
	var nilRegion *Region
	if nilRegion.Solidity() != 0 {
		t.Error("nil region solidity should be 0")
	}

	r := &Region{ContourArea: 50, HullArea: 100}
	if r.Solidity() != 0.5 {
		t.Errorf("Solidity() = %f, want 0.5", r.Solidity())
	}

	if (&Region{ContourArea: 5}).Solidity() != 0 {
		t.Error("zero hull area should give 0 solidity")
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()
	frame := gocv.NewMat()
	defer frame.Close()

	if _, err := m.Detect(&frame, DefaultRange()); !errors.Is(err, ErrNoRegion) {
		t.Errorf("unset mock should return ErrNoRegion, got %v", err)
	}

	m.SetRegion(TwoFingersRegion())
	rng := HSVRange{HMax: 10, SMax: 20, VMax: 30}
	region, err := m.Detect(&frame, rng)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if region.HullArea != 75000 {
		t.Errorf("HullArea = %f, want 75000", region.HullArea)
	}
	if m.LastRange() != rng {
		t.Errorf("LastRange() = %+v, want %+v", m.LastRange(), rng)
	}

	boom := errors.New("boom")
	m.SetError(boom)
	if _, err := m.Detect(&frame, rng); !errors.Is(err, boom) {
		t.Errorf("Detect() error = %v, want boom", err)
	}

	if m.Calls() != 3 {
		t.Errorf("Calls() = %d, want 3", m.Calls())
	}

	m.Close()
	if !m.Closed() {
		t.Error("Closed() should be true after Close")
	}
}
