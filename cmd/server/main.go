// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/tatsuya-ogawa/migan-inpaint/internal/cache"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/config"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/handler"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/inference"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/metrics"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/middleware"
	"github.com/tatsuya-ogawa/migan-inpaint/internal/pipeline"
)

const serviceName = "migan-inpaint"

func main() {
	// Parse command-line flags
	port := flag.Int("port", 0, "HTTP server port (default: 8080)")
	modelPath := flag.String("model", "", "Path to ONNX model file (default: migan_256.onnx)")
	resolution := flag.Int("resolution", 0, "Model resolution, 256 or 512 (default: 256)")
	redisAddr := flag.String("redis", "", "Redis address for the result cache (default: localhost:6379)")
	metricsPort := flag.Int("metrics", 0, "Prometheus metrics port (default: 9100)")
	configFile := flag.String("config", "", "Path to config file (optional)")
	useMock := flag.Bool("mock", false, "Use mock inference engine (for testing)")
	flag.Parse()

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Flags override file and environment
	if *port > 0 {
		cfg.Port = *port
	}
	if *modelPath != "" {
		cfg.Model = *modelPath
	}
	if *resolution > 0 {
		cfg.Resolution = *resolution
	}
	if *redisAddr != "" {
		cfg.Redis = *redisAddr
	}
	if *metricsPort > 0 {
		cfg.MetricsPort = *metricsPort
	}
	if *useMock {
		cfg.UseMockInference = true
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	log.Printf("Starting %s...", serviceName)
	log.Printf("Configuration: port=%d, model=%s, resolution=%d, redis=%s, metrics=%d, otel=%v",
		cfg.Port, cfg.Model, cfg.Resolution, cfg.Redis, cfg.MetricsPort, cfg.OTELEnabled)

	// Initialize OpenTelemetry tracer
	var tracerShutdown func(context.Context) error
	if cfg.OTELEnabled {
		tracerShutdown, err = initTracer(cfg.OTELEndpoint)
		if err != nil {
			log.Printf("Warning: Failed to initialize tracer: %v", err)
		} else {
			log.Printf("OpenTelemetry tracing enabled (endpoint: %s)", cfg.OTELEndpoint)
		}
	}

	// Load inference engine
	var engine inference.Engine
	if cfg.UseMockInference {
		log.Printf("Using mock inference engine")
		engine = inference.NewMock(cfg.Resolution)
	} else {
		log.Printf("Loading ONNX model from %s...", cfg.Model)
		engine, err = inference.NewONNX(cfg.Model, cfg.Resolution, cfg.SerializeInference)
		if err != nil {
			log.Fatalf("Failed to load ONNX model: %v", err)
		}
		log.Printf("ONNX model loaded successfully")
	}
	defer engine.Close()

	// Initialize Redis result cache (optional)
	var cacheClient *cache.Cache
	if cfg.Redis != "" {
		log.Printf("Connecting to Redis at %s...", cfg.Redis)
		cacheClient, err = cache.New(cfg.Redis)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis: %v (continuing without cache)", err)
		} else {
			defer cacheClient.Close()
			log.Printf("Redis connected successfully")
		}
	}

	// Readiness flag shared with the metrics server's health endpoints
	var ready atomic.Bool

	// Start HTTP server for metrics and health checks
	metricsServer := startMetricsServer(cfg.MetricsPort, &ready)

	// Build the API server
	orch := pipeline.New(engine)
	h := handler.New(orch, cacheClient, cfg.Resolution, cfg.CacheTTL)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.Metrics())
	h.Register(router)

	apiServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	ready.Store(true)
	metrics.SetHealthy()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("Received signal %v, shutting down gracefully...", sig)

		ready.Store(false)
		metrics.SetUnhealthy()

		// Give time for load balancers to detect unhealthy status
		time.Sleep(5 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		apiServer.Shutdown(ctx)
		metricsServer.Shutdown(ctx)

		if tracerShutdown != nil {
			tracerShutdown(ctx)
		}
	}()

	log.Printf("HTTP server listening on %s", apiServer.Addr)
	log.Printf("%s is ready to accept requests", serviceName)

	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to serve: %v", err)
	}

	log.Printf("Server shutdown complete")
}

func loadConfig(configFile string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadWithConfigFile(configFile)
	}
	return config.Load()
}

func startMetricsServer(port int, ready *atomic.Bool) *http.Server {
	mux := http.NewServeMux()

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Service Unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Readiness check (same as healthz for now)
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Not Ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Ready"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		log.Printf("HTTP server listening on %s (metrics, health)", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	return server
}

func initTracer(endpoint string) (func(context.Context) error, error) {
	var exporter sdktrace.SpanExporter
	var err error

	if endpoint != "" {
		// For now, use stdout exporter as OTLP requires more setup
		// In production, use: otlptrace.New(ctx, otlptracegrpc.NewClient(...))
		log.Printf("Note: Using stdout trace exporter (OTLP endpoint: %s)", endpoint)
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	} else {
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Create resource with service information
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// Create tracer provider
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	// Set global tracer provider
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}
