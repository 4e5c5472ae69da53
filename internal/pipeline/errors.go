// internal/pipeline/errors.go
package pipeline

import "fmt"

// Kind classifies a pipeline failure for machine handling; the wrapped error
// carries the human-readable diagnostics.
type Kind string

const (
	KindInvalidInput Kind = "invalid_input"
	KindEncode       Kind = "encode_failed"
	KindInfer        Kind = "inference_failed"
	KindDecode       Kind = "decode_failed"
)

// Error is the terminal failure of a single pipeline invocation. There is no
// retry: the invocation that produced it is finished, and a new one must be
// started fresh.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func invalidInput(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidInput, Err: fmt.Errorf(format, args...)}
}

func encodeFailed(err error) *Error {
	return &Error{Kind: KindEncode, Err: err}
}

func inferFailed(err error) *Error {
	return &Error{Kind: KindInfer, Err: err}
}

func decodeFailed(err error) *Error {
	return &Error{Kind: KindDecode, Err: err}
}
