package tensor

import (
	"fmt"
	"image"
)

// maxTensorElems bounds input tensor allocation. Resolutions past this are a
// configuration error, not a workload.
const maxTensorElems = 1 << 28

// Encode packs an RGB image and a mask into the model's input tensor.
//
// Both images must already be resolution x resolution; Encode never resizes.
// Only the mask's red channel is sampled: mask images are grayscale by
// convention, and averaging channels would diverge from the training-time
// preprocessing. The mask is normalized to [0,1] (complemented when invert
// is set), image channels to [-1,1], and the planes are written
// channel-major:
//
//	plane 0:    m - 0.5
//	planes 1-3: r*m, g*m, b*m
//
// All written values are bounded by construction (mask plane in [-0.5, 0.5],
// RGB planes in [-1, 1]), so no clamping is applied. Encode reads its inputs
// only and holds no state; it is safe to call from any goroutine.
func Encode(img, mask *image.NRGBA, resolution int, invert bool) (*Input, error) {
	if img == nil || len(img.Pix) == 0 {
		return nil, fmt.Errorf("image: %w", ErrMissingPixelData)
	}
	if mask == nil || len(mask.Pix) == 0 {
		return nil, fmt.Errorf("mask: %w", ErrMissingPixelData)
	}
	if resolution <= 0 || int64(InputChannels)*int64(resolution)*int64(resolution) > maxTensorElems {
		return nil, fmt.Errorf("resolution %d: %w", resolution, ErrAllocationFailed)
	}
	if err := checkSize(img, resolution, "image"); err != nil {
		return nil, err
	}
	if err := checkSize(mask, resolution, "mask"); err != nil {
		return nil, err
	}

	plane := resolution * resolution
	data := make([]float32, InputChannels*plane)
	maskPlane := data[:plane]
	rPlane := data[plane : 2*plane]
	gPlane := data[2*plane : 3*plane]
	bPlane := data[3*plane:]

	i := 0
	for y := 0; y < resolution; y++ {
		io := img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y)
		mo := mask.PixOffset(mask.Rect.Min.X, mask.Rect.Min.Y+y)
		for x := 0; x < resolution; x++ {
			m := float32(mask.Pix[mo]) / 255
			if invert {
				m = 1 - m
			}
			r := float32(img.Pix[io])*2/255 - 1
			g := float32(img.Pix[io+1])*2/255 - 1
			b := float32(img.Pix[io+2])*2/255 - 1

			maskPlane[i] = m - 0.5
			rPlane[i] = r * m
			gPlane[i] = g * m
			bPlane[i] = b * m

			i++
			io += 4
			mo += 4
		}
	}

	return &Input{Data: data, Resolution: resolution}, nil
}

func checkSize(img *image.NRGBA, resolution int, name string) error {
	if img.Rect.Dx() != resolution || img.Rect.Dy() != resolution {
		return fmt.Errorf("%s is %dx%d, want %dx%d: %w",
			name, img.Rect.Dx(), img.Rect.Dy(), resolution, resolution, ErrBadDimensions)
	}
	return nil
}
