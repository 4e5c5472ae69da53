// internal/inference/mock.go
package inference

import (
	"fmt"
	"sync"
	"time"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/tensor"
)

// Mock is a deterministic Engine for testing. It runs no model and needs no
// ONNX shared library: the output either echoes the input's RGB planes or is
// a constant fill.
type Mock struct {
	// ModelResolution is the square resolution the mock claims to require
	ModelResolution int
	// Fill is the constant output value used when Echo is false
	Fill float32
	// Echo copies the input's RGB planes to the output when true
	Echo bool
	// Delay is slept before returning, to simulate a slow engine
	Delay time.Duration
	// ShouldError if true, Infer will return an error
	ShouldError bool
	// ErrorMessage is the error message to return when ShouldError is true
	ErrorMessage string

	mu        sync.Mutex
	callCount int
}

// NewMock creates a Mock that echoes input RGB planes, so decoded results
// can be correlated with the invocation's own input.
func NewMock(resolution int) *Mock {
	return &Mock{
		ModelResolution: resolution,
		Echo:            true,
	}
}

// NewMockWithFill creates a Mock returning a constant-valued output tensor.
func NewMockWithFill(resolution int, fill float32) *Mock {
	return &Mock{
		ModelResolution: resolution,
		Fill:            fill,
	}
}

// Resolution reports the mock's configured resolution.
func (m *Mock) Resolution() int { return m.ModelResolution }

// Infer validates the input like the real adapter and returns a
// deterministic output tensor.
func (m *Mock) Infer(in *tensor.Input) (*tensor.Output, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.Delay > 0 {
		time.Sleep(m.Delay)
	}

	if m.ShouldError {
		if m.ErrorMessage != "" {
			return nil, &EngineError{Msg: m.ErrorMessage}
		}
		return nil, &EngineError{Msg: "mock inference error"}
	}

	r := m.ModelResolution
	if in == nil || in.Resolution != r || len(in.Data) != tensor.InputChannels*r*r {
		return nil, fmt.Errorf("input is not [1,%d,%d,%d]: %w",
			tensor.InputChannels, r, r, ErrShapeMismatch)
	}

	plane := r * r
	data := make([]float32, tensor.OutputChannels*plane)
	if m.Echo {
		// Input planes 1..3 are the masked RGB channels.
		copy(data, in.Data[plane:])
	} else {
		for i := range data {
			data[i] = m.Fill
		}
	}

	return tensor.NewOutput(data, r)
}

// Close is a no-op for the mock implementation
func (m *Mock) Close() error {
	return nil
}

// CallCount reports how many times Infer was called.
func (m *Mock) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// SetError configures the mock to fail subsequent Infer calls
func (m *Mock) SetError(msg string) {
	m.ShouldError = true
	m.ErrorMessage = msg
}

// ClearError clears any configured error
func (m *Mock) ClearError() {
	m.ShouldError = false
	m.ErrorMessage = ""
}

// Ensure Mock implements Engine at compile time
var _ Engine = (*Mock)(nil)
