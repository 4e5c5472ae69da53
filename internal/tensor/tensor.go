// Package tensor implements the numeric codec between images and the
// channel-major float32 tensors the inpainting model consumes and produces.
//
// The layout and normalization here must match the convention the model was
// trained with exactly; a deviation degrades output quality without raising
// any error.
package tensor

import (
	"errors"
	"fmt"
)

const (
	// InputChannels is the packed model input: one mask plane followed by
	// three masked RGB planes.
	InputChannels = 4
	// OutputChannels is the model output: three RGB planes.
	OutputChannels = 3
)

var (
	// ErrMissingPixelData reports an image or tensor whose backing buffer
	// cannot be read.
	ErrMissingPixelData = errors.New("missing pixel data")
	// ErrBadDimensions reports an input image that is not the model's
	// square resolution.
	ErrBadDimensions = errors.New("bad image dimensions")
	// ErrShapeMismatch reports a tensor whose size does not match the
	// declared shape.
	ErrShapeMismatch = errors.New("tensor shape mismatch")
	// ErrAllocationFailed reports a tensor buffer that cannot be allocated.
	ErrAllocationFailed = errors.New("tensor allocation failed")
)

// Input is a [1, InputChannels, R, R] float32 tensor in channel-major
// layout, owned by a single inference call.
type Input struct {
	Data       []float32
	Resolution int
}

// Shape returns the NCHW shape of the tensor.
func (t *Input) Shape() []int64 {
	r := int64(t.Resolution)
	return []int64{1, InputChannels, r, r}
}

// Output is a [1, OutputChannels, R, R] float32 tensor in channel-major
// layout, as produced by the inference engine. Values are nominally in
// [-1, 1] but may exceed that range; Decode clamps them.
type Output struct {
	Data       []float32
	Resolution int
}

// Shape returns the NCHW shape of the tensor.
func (t *Output) Shape() []int64 {
	r := int64(t.Resolution)
	return []int64{1, OutputChannels, r, r}
}

// NewOutput wraps raw engine output, validating its length against the
// expected OutputChannels*R*R layout.
func NewOutput(data []float32, resolution int) (*Output, error) {
	if data == nil {
		return nil, fmt.Errorf("output tensor: %w", ErrMissingPixelData)
	}
	if resolution <= 0 {
		return nil, fmt.Errorf("resolution %d: %w", resolution, ErrShapeMismatch)
	}
	want := OutputChannels * resolution * resolution
	if len(data) != want {
		return nil, fmt.Errorf("output has %d values, want %d (%dx%dx%d): %w",
			len(data), want, OutputChannels, resolution, resolution, ErrShapeMismatch)
	}
	return &Output{Data: data, Resolution: resolution}, nil
}
