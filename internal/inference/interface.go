// internal/inference/interface.go
package inference

import (
	"errors"
	"fmt"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/tensor"
)

var (
	// ErrModelNotLoaded reports an absent or closed model handle.
	ErrModelNotLoaded = errors.New("model not loaded")
	// ErrShapeMismatch reports an input or output tensor whose shape does
	// not match the loaded model's contract.
	ErrShapeMismatch = errors.New("tensor shape mismatch")
)

// EngineError carries a diagnostic from the underlying inference runtime for
// failures outside the known taxonomy.
type EngineError struct {
	Msg string
	Err error
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine failure: %s: %v", e.Msg, e.Err)
	}
	return "engine failure: " + e.Msg
}

func (e *EngineError) Unwrap() error { return e.Err }

// Engine is the opaque inference capability: a blocking pure function from
// the packed input tensor to the model's raw output tensor.
// This abstraction allows for easy mocking in tests and swapping runtimes.
// Implementations must be safe for concurrent use by multiple goroutines.
type Engine interface {
	// Infer runs one forward pass. It blocks until the engine returns,
	// performs no retries and imposes no timeout, and surfaces whatever
	// the runtime reports translated into ErrModelNotLoaded,
	// ErrShapeMismatch or EngineError.
	Infer(in *tensor.Input) (*tensor.Output, error)

	// Resolution reports the fixed square resolution the loaded model
	// artifact requires.
	Resolution() int

	// Close releases any resources held by the engine.
	Close() error
}
