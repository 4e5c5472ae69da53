// Package handler exposes the inpainting pipeline over HTTP.
package handler

import (
	"bytes"
	"image"
	_ "image/jpeg"
	"image/png"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	_ "golang.org/x/image/webp"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/cache"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/metrics"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/middleware"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/pipeline"
)

// Handler serves the inpainting API. The cache is optional; when present,
// results are looked up by a digest of the raw request before the pipeline
// runs at all.
type Handler struct {
	orch       *pipeline.Orchestrator
	cache      *cache.Cache
	cacheTTL   time.Duration
	resolution int
}

// New creates a Handler for the given orchestrator. cache may be nil.
func New(orch *pipeline.Orchestrator, cache *cache.Cache, resolution int, cacheTTL time.Duration) *Handler {
	return &Handler{
		orch:       orch,
		cache:      cache,
		cacheTTL:   cacheTTL,
		resolution: resolution,
	}
}

// Register installs the handler's routes on the router
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/v1/inpaint", h.Inpaint)
	r.GET("/v1/status", h.Status)
}

// Status reports the advisory busy flag and the loaded model resolution, so
// interactive callers can gate new submissions.
func (h *Handler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"busy":       h.orch != nil && h.orch.Busy(),
		"resolution": h.resolution,
	})
}

// Inpaint handles one inpainting request: multipart form with an "image"
// part, a "mask" part and an optional "invert" boolean field. Responds with
// the result as PNG.
func (h *Handler) Inpaint(c *gin.Context) {
	requestID := middleware.GetRequestID(c)
	if requestID == "" {
		requestID = "unknown"
	}

	if h.orch == nil {
		failedPrecondition(c, "pipeline not initialized")
		return
	}

	imageData, err := formFileBytes(c, "image")
	if err != nil {
		invalidArgument(c, "image part: %v", err)
		return
	}
	maskData, err := formFileBytes(c, "mask")
	if err != nil {
		invalidArgument(c, "mask part: %v", err)
		return
	}

	invert := false
	if raw := c.PostForm("invert"); raw != "" {
		invert, err = strconv.ParseBool(raw)
		if err != nil {
			invalidArgument(c, "invert must be a boolean, got %q", raw)
			return
		}
	}

	var key string
	if h.cache != nil {
		key = cache.Key(imageData, maskData, invert, h.resolution)
		data, ok, err := h.cache.GetResult(c.Request.Context(), key)
		if err != nil {
			log.Printf("[%s] Cache lookup failed: %v", requestID, err)
		} else if ok {
			metrics.RecordCacheHit()
			c.Header("X-Cache", "hit")
			c.Data(http.StatusOK, "image/png", data)
			return
		} else {
			metrics.RecordCacheMiss()
		}
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		invalidArgument(c, "image: %v", err)
		return
	}
	mask, _, err := image.Decode(bytes.NewReader(maskData))
	if err != nil {
		invalidArgument(c, "mask: %v", err)
		return
	}

	start := time.Now()
	result := h.orch.Run(c.Request.Context(), img, mask, invert)
	out, err := result.Wait(c.Request.Context())
	if err != nil {
		log.Printf("[%s] Inpaint error: %v", requestID, err)
		writeError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		internalError(c, "failed to encode result: %v", err)
		return
	}

	if h.cache != nil {
		if err := h.cache.SetResult(c.Request.Context(), key, buf.Bytes(), h.cacheTTL); err != nil {
			log.Printf("[%s] Cache store failed: %v", requestID, err)
		}
		c.Header("X-Cache", "miss")
	}

	log.Printf("[%s] Inpaint: invert=%v, total_ms=%.2f",
		requestID, invert, float64(time.Since(start).Microseconds())/1000.0)

	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

func formFileBytes(c *gin.Context, name string) ([]byte, error) {
	fh, err := c.FormFile(name)
	if err != nil {
		return nil, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
