package tensor

import (
	"fmt"
	"image"
	"math"
)

// Decode converts the model's output tensor back into a displayable image.
//
// Each value is mapped from the model's [-1,1] output convention back to
// [0,1] (v*0.5 + 0.5) — the inverse of the encoder's image normalization,
// not the mask one — then clamped, scaled to [0,255] and rounded half away
// from zero, so an output of exactly 0.0 decodes to 128. Alpha is always
// fully opaque. Decode is pure and safe to call from any goroutine.
func Decode(out *Output) (*image.NRGBA, error) {
	if out == nil || out.Data == nil {
		return nil, fmt.Errorf("output tensor: %w", ErrMissingPixelData)
	}
	r := out.Resolution
	plane := r * r
	if r <= 0 || len(out.Data) != OutputChannels*plane {
		return nil, fmt.Errorf("output has %d values, want %d (%dx%dx%d): %w",
			len(out.Data), OutputChannels*plane, OutputChannels, r, r, ErrShapeMismatch)
	}

	rPlane := out.Data[:plane]
	gPlane := out.Data[plane : 2*plane]
	bPlane := out.Data[2*plane:]

	img := image.NewNRGBA(image.Rect(0, 0, r, r))
	i := 0
	for y := 0; y < r; y++ {
		o := img.PixOffset(0, y)
		for x := 0; x < r; x++ {
			img.Pix[o+0] = toByte(rPlane[i])
			img.Pix[o+1] = toByte(gPlane[i])
			img.Pix[o+2] = toByte(bPlane[i])
			img.Pix[o+3] = 0xff
			i++
			o += 4
		}
	}
	return img, nil
}

// toByte maps one output value to an 8-bit sample. Out-of-range values are
// clamped, never wrapped.
func toByte(v float32) uint8 {
	f := float64(v)*0.5 + 0.5
	if f <= 0 {
		return 0
	}
	if f >= 1 {
		return 255
	}
	return uint8(math.Round(f * 255))
}
