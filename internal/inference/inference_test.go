// internal/inference/inference_test.go
package inference

import (
	"errors"
	"os"
	"testing"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/tensor"
)

const testResolution = 8

func testInput(t *testing.T, resolution int) *tensor.Input {
	t.Helper()
	plane := resolution * resolution
	data := make([]float32, tensor.InputChannels*plane)
	for i := range data {
		data[i] = float32(i%17)/17 - 0.5
	}
	return &tensor.Input{Data: data, Resolution: resolution}
}

func TestMockEcho(t *testing.T) {
	mock := NewMock(testResolution)
	in := testInput(t, testResolution)

	out, err := mock.Infer(in)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	plane := testResolution * testResolution
	if len(out.Data) != tensor.OutputChannels*plane {
		t.Fatalf("Expected %d output values, got %d", tensor.OutputChannels*plane, len(out.Data))
	}

	// Echo mode mirrors input planes 1..3
	for i := 0; i < tensor.OutputChannels*plane; i++ {
		if out.Data[i] != in.Data[plane+i] {
			t.Fatalf("Output[%d] = %f, expected %f", i, out.Data[i], in.Data[plane+i])
		}
	}

	if mock.CallCount() != 1 {
		t.Errorf("Expected CallCount=1, got %d", mock.CallCount())
	}
}

func TestMockFill(t *testing.T) {
	mock := NewMockWithFill(testResolution, 0.25)
	out, err := mock.Infer(testInput(t, testResolution))
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	for i, v := range out.Data {
		if v != 0.25 {
			t.Fatalf("Output[%d] = %f, expected 0.25", i, v)
		}
	}
}

func TestMockError(t *testing.T) {
	mock := NewMock(testResolution)
	mock.SetError("test error")

	_, err := mock.Infer(testInput(t, testResolution))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var engineErr *EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("Expected EngineError, got %T: %v", err, err)
	}
	if engineErr.Msg != "test error" {
		t.Errorf("Expected 'test error', got '%s'", engineErr.Msg)
	}

	mock.ClearError()
	if _, err := mock.Infer(testInput(t, testResolution)); err != nil {
		t.Errorf("Expected success after ClearError, got %v", err)
	}
}

func TestMockShapeMismatch(t *testing.T) {
	mock := NewMock(testResolution)

	if _, err := mock.Infer(nil); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for nil input, got %v", err)
	}

	wrongRes := testInput(t, testResolution*2)
	if _, err := mock.Infer(wrongRes); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for wrong resolution, got %v", err)
	}

	truncated := testInput(t, testResolution)
	truncated.Data = truncated.Data[:len(truncated.Data)-1]
	if _, err := mock.Infer(truncated); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("Expected ErrShapeMismatch for truncated data, got %v", err)
	}
}

func TestONNXWithModel(t *testing.T) {
	// Skip if the ONNX model or shared library is not available
	modelPath := "testdata/migan_256.onnx"
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		t.Skip("Skipping real inference test: testdata/migan_256.onnx not found")
	}

	engine, err := NewONNX(modelPath, 256, false)
	if err != nil {
		t.Skipf("Skipping real inference test: %v", err)
	}
	defer engine.Close()

	out, err := engine.Infer(testInput(t, 256))
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}

	expectedLen := tensor.OutputChannels * 256 * 256
	if len(out.Data) != expectedLen {
		t.Errorf("Expected %d output values, got %d", expectedLen, len(out.Data))
	}
}

func TestONNXClosed(t *testing.T) {
	engine := &ONNX{resolution: testResolution}
	if _, err := engine.Infer(testInput(t, testResolution)); !errors.Is(err, ErrModelNotLoaded) {
		t.Errorf("Expected ErrModelNotLoaded for closed engine, got %v", err)
	}
}

func TestONNXInvalidResolution(t *testing.T) {
	if _, err := NewONNX("missing.onnx", 0, false); err == nil {
		t.Error("Expected error for zero resolution")
	}
}
