// Package pipeline sequences the inpainting stages: resize both inputs to
// the model resolution, encode them into the input tensor, run inference,
// decode the output back into an image.
package pipeline

import (
	"context"
	"image"
	"log"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/inference"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/metrics"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/tensor"
)

// Orchestrator runs inpainting invocations against a loaded engine.
//
// Each Run executes on its own goroutine and its stages run strictly in
// sequence. Invocations share nothing but the engine handle, so concurrent
// Runs are safe; their completion order is not guaranteed. Busy is advisory
// only — callers wanting single-flight semantics gate new Runs on it
// themselves.
type Orchestrator struct {
	engine   inference.Engine
	tracer   trace.Tracer
	inFlight atomic.Int64
}

// New creates an Orchestrator bound to the given engine handle.
func New(engine inference.Engine) *Orchestrator {
	return &Orchestrator{
		engine: engine,
		tracer: otel.Tracer("pipeline"),
	}
}

// Busy reports whether any invocation is currently in flight.
func (o *Orchestrator) Busy() bool { return o.inFlight.Load() > 0 }

// Result is the handle for one invocation. It resolves exactly once, with
// either a fully valid image or an error — never both, never a partial
// result.
type Result struct {
	done chan struct{}
	img  *image.NRGBA
	err  error
}

// Done returns a channel that is closed when the invocation has completed.
func (r *Result) Done() <-chan struct{} { return r.done }

// Wait blocks until the invocation completes or ctx is done. The pipeline
// itself is not cancelled by ctx expiry: the engine call is not preemptible,
// so the work runs to completion and its outcome is discarded.
func (r *Result) Wait(ctx context.Context) (*image.NRGBA, error) {
	select {
	case <-r.done:
		return r.img, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts one inpainting invocation off the caller's goroutine and
// returns its result handle. invert flips the mask's active sense; there is
// no default baked into mask color.
func (o *Orchestrator) Run(ctx context.Context, img, mask image.Image, invert bool) *Result {
	res := &Result{done: make(chan struct{})}
	metrics.SetInFlight(o.inFlight.Add(1))
	go func() {
		defer func() {
			metrics.SetInFlight(o.inFlight.Add(-1))
			close(res.done)
		}()
		res.img, res.err = o.invoke(ctx, img, mask, invert)
	}()
	return res
}

func (o *Orchestrator) invoke(ctx context.Context, img, mask image.Image, invert bool) (*image.NRGBA, error) {
	if o.engine == nil {
		return nil, inferFailed(inference.ErrModelNotLoaded)
	}
	if img == nil || mask == nil {
		return nil, invalidInput("both an image and a mask are required")
	}

	r := o.engine.Resolution()
	total := time.Now()

	ctx, span := o.tracer.Start(ctx, "inpaint")
	defer span.End()

	// imaging.Linear is a deterministic bilinear kernel; the kernel choice
	// affects output quality, not validity.
	start := time.Now()
	_, resizeSpan := o.tracer.Start(ctx, "resize")
	resizedImg := imaging.Resize(img, r, r, imaging.Linear)
	resizedMask := imaging.Resize(mask, r, r, imaging.Linear)
	resizeSpan.End()
	metrics.RecordStage("resize", time.Since(start).Seconds())

	if resizedImg.Rect.Dx() != r || resizedImg.Rect.Dy() != r {
		return nil, invalidInput("image could not be resized to %dx%d", r, r)
	}
	if resizedMask.Rect.Dx() != r || resizedMask.Rect.Dy() != r {
		return nil, invalidInput("mask could not be resized to %dx%d", r, r)
	}

	start = time.Now()
	_, encodeSpan := o.tracer.Start(ctx, "encode")
	in, err := tensor.Encode(resizedImg, resizedMask, r, invert)
	encodeSpan.End()
	metrics.RecordStage("encode", time.Since(start).Seconds())
	if err != nil {
		return nil, encodeFailed(err)
	}

	start = time.Now()
	_, inferSpan := o.tracer.Start(ctx, "infer")
	out, err := o.engine.Infer(in)
	inferSpan.End()
	inferSeconds := time.Since(start).Seconds()
	metrics.RecordStage("infer", inferSeconds)
	metrics.RecordInferenceLatency(inferSeconds)
	if err != nil {
		return nil, inferFailed(err)
	}

	start = time.Now()
	_, decodeSpan := o.tracer.Start(ctx, "decode")
	result, err := tensor.Decode(out)
	decodeSpan.End()
	metrics.RecordStage("decode", time.Since(start).Seconds())
	if err != nil {
		return nil, decodeFailed(err)
	}

	log.Printf("inpaint: resolution=%d invert=%v infer_ms=%.2f total_ms=%.2f",
		r, invert, inferSeconds*1000, float64(time.Since(total).Microseconds())/1000.0)

	return result, nil
}
