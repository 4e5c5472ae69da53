// internal/inference/onnx.go
package inference

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/tensor"
)

// Tensor names fixed by the model conversion tool's export contract.
const (
	inputName  = "input_image"
	outputName = "output_image"
)

// ONNX wraps an ONNX Runtime session holding the inpainting model.
// It implements the Engine interface.
//
// The session is loaded once and treated as a read-only handle; Infer never
// reloads it. ONNX Runtime sessions are re-entrant, so concurrent Infer
// calls run without serialization unless the adapter was created with
// serialize set. Close must not be called while an Infer is in flight.
type ONNX struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	resolution int
	serialize  bool
}

// NewONNX loads the model artifact at modelPath, fixed at the given square
// resolution. serialize funnels Infer calls through a mutex for runtimes
// that are not re-entrant.
func NewONNX(modelPath string, resolution int, serialize bool) (*ONNX, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("invalid model resolution %d", resolution)
	}

	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputName},
		[]string{outputName},
		nil, // Use default session options
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &ONNX{
		session:    session,
		resolution: resolution,
		serialize:  serialize,
	}, nil
}

// Resolution reports the fixed square resolution the model requires.
func (o *ONNX) Resolution() int { return o.resolution }

// Infer runs one forward pass through the loaded model.
func (o *ONNX) Infer(in *tensor.Input) (*tensor.Output, error) {
	o.mu.Lock()
	session := o.session
	o.mu.Unlock()
	if session == nil {
		return nil, ErrModelNotLoaded
	}

	if in == nil || in.Resolution != o.resolution ||
		len(in.Data) != tensor.InputChannels*o.resolution*o.resolution {
		return nil, fmt.Errorf("input is not [1,%d,%d,%d]: %w",
			tensor.InputChannels, o.resolution, o.resolution, ErrShapeMismatch)
	}

	inputTensor, err := ort.NewTensor(ort.NewShape(in.Shape()...), in.Data)
	if err != nil {
		return nil, &EngineError{Msg: "failed to create input tensor", Err: err}
	}
	defer inputTensor.Destroy()

	r := int64(o.resolution)
	outputData := make([]float32, tensor.OutputChannels*o.resolution*o.resolution)
	outputTensor, err := ort.NewTensor(ort.NewShape(1, tensor.OutputChannels, r, r), outputData)
	if err != nil {
		return nil, &EngineError{Msg: "failed to create output tensor", Err: err}
	}
	defer outputTensor.Destroy()

	if o.serialize {
		o.mu.Lock()
		err = session.Run(
			[]ort.ArbitraryTensor{inputTensor},
			[]ort.ArbitraryTensor{outputTensor},
		)
		o.mu.Unlock()
	} else {
		err = session.Run(
			[]ort.ArbitraryTensor{inputTensor},
			[]ort.ArbitraryTensor{outputTensor},
		)
	}
	if err != nil {
		return nil, &EngineError{Msg: "inference failed", Err: err}
	}

	// Copy out before the ORT tensor is destroyed.
	data := append([]float32(nil), outputTensor.GetData()...)
	out, err := tensor.NewOutput(data, o.resolution)
	if err != nil {
		return nil, fmt.Errorf("engine output: %w", err)
	}
	return out, nil
}

// Close releases the ONNX session resources.
func (o *ONNX) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.session != nil {
		err := o.session.Destroy()
		o.session = nil
		if err != nil {
			return fmt.Errorf("failed to destroy session: %w", err)
		}
	}
	return nil
}

// Ensure ONNX implements Engine at compile time
var _ Engine = (*ONNX)(nil)
