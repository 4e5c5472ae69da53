package tensor

import (
	"errors"
	"testing"
)

func constantOutput(resolution int, r, g, b float32) *Output {
	plane := resolution * resolution
	data := make([]float32, OutputChannels*plane)
	for i := 0; i < plane; i++ {
		data[i] = r
		data[plane+i] = g
		data[2*plane+i] = b
	}
	return &Output{Data: data, Resolution: resolution}
}

func TestDecodeValueMapping(t *testing.T) {
	cases := []struct {
		value float32
		want  uint8
	}{
		{-1, 0},
		{0, 128}, // rounding is half away from zero
		{1, 255},
		{-0.5, 64},
		{0.5, 191},
	}

	for _, tc := range cases {
		out := constantOutput(testResolution, tc.value, tc.value, tc.value)
		img, err := Decode(out)
		if err != nil {
			t.Fatalf("Decode(%f) failed: %v", tc.value, err)
		}
		px := img.NRGBAAt(0, 0)
		if px.R != tc.want || px.G != tc.want || px.B != tc.want {
			t.Errorf("Decode(%f) = (%d,%d,%d), expected %d", tc.value, px.R, px.G, px.B, tc.want)
		}
		if px.A != 255 {
			t.Errorf("Decode(%f) alpha = %d, expected 255", tc.value, px.A)
		}
	}
}

func TestDecodeClampsOutOfRange(t *testing.T) {
	// Engine output can exceed [-1,1] numerically; decode must clamp,
	// never wrap or panic.
	out := constantOutput(testResolution, 2.0, -2.0, 100.0)
	img, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	px := img.NRGBAAt(3, 3)
	if px.R != 255 {
		t.Errorf("R = %d, expected clamp to 255", px.R)
	}
	if px.G != 0 {
		t.Errorf("G = %d, expected clamp to 0", px.G)
	}
	if px.B != 255 {
		t.Errorf("B = %d, expected clamp to 255", px.B)
	}
}

func TestDecodeChannelMajorLayout(t *testing.T) {
	out := constantOutput(testResolution, 1, 0, -1)
	img, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != testResolution || bounds.Dy() != testResolution {
		t.Fatalf("Expected %dx%d image, got %dx%d", testResolution, testResolution, bounds.Dx(), bounds.Dy())
	}
	for y := 0; y < testResolution; y++ {
		for x := 0; x < testResolution; x++ {
			px := img.NRGBAAt(x, y)
			if px.R != 255 || px.G != 128 || px.B != 0 || px.A != 255 {
				t.Fatalf("Pixel (%d,%d) = %v, expected (255,128,0,255)", x, y, px)
			}
		}
	}
}

func TestDecodeShapeMismatch(t *testing.T) {
	plane := testResolution * testResolution

	short := &Output{Data: make([]float32, OutputChannels*plane-1), Resolution: testResolution}
	if _, err := Decode(short); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for short data, got %v", err)
	}

	// Wrong channel count: a 4-plane tensor declared at this resolution
	fourChan := &Output{Data: make([]float32, 4*plane), Resolution: testResolution}
	if _, err := Decode(fourChan); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for 4-channel data, got %v", err)
	}

	zeroRes := &Output{Data: make([]float32, OutputChannels*plane), Resolution: 0}
	if _, err := Decode(zeroRes); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for zero resolution, got %v", err)
	}
}

func TestDecodeMissingData(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrMissingPixelData) {
		t.Errorf("Expected ErrMissingPixelData for nil output, got %v", err)
	}
	if _, err := Decode(&Output{Resolution: testResolution}); !errors.Is(err, ErrMissingPixelData) {
		t.Errorf("Expected ErrMissingPixelData for nil data, got %v", err)
	}
}

func TestNewOutputValidation(t *testing.T) {
	plane := testResolution * testResolution

	if _, err := NewOutput(nil, testResolution); !errors.Is(err, ErrMissingPixelData) {
		t.Errorf("Expected ErrMissingPixelData, got %v", err)
	}
	if _, err := NewOutput(make([]float32, plane), testResolution); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for single plane, got %v", err)
	}
	out, err := NewOutput(make([]float32, OutputChannels*plane), testResolution)
	if err != nil {
		t.Fatalf("NewOutput failed: %v", err)
	}
	shape := out.Shape()
	want := []int64{1, OutputChannels, testResolution, testResolution}
	for i := range want {
		if shape[i] != want[i] {
			t.Errorf("Shape[%d] = %d, expected %d", i, shape[i], want[i])
		}
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	// With a white mask the RGB planes hold the normalized image exactly;
	// feeding them back through Decode must reproduce the source bytes.
	img := solidImage(testResolution, 201, 13, 77)
	mask := solidImage(testResolution, 255, 255, 255)

	in, err := Encode(img, mask, testResolution, false)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	plane := testResolution * testResolution
	out, err := NewOutput(in.Data[plane:], testResolution)
	if err != nil {
		t.Fatalf("NewOutput failed: %v", err)
	}
	decoded, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	for y := 0; y < testResolution; y++ {
		for x := 0; x < testResolution; x++ {
			got := decoded.NRGBAAt(x, y)
			want := img.NRGBAAt(x, y)
			if got.R != want.R || got.G != want.G || got.B != want.B {
				t.Fatalf("Pixel (%d,%d) = %v, expected %v", x, y, got, want)
			}
		}
	}
}
