package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inferd/internal/runner"
	"inferd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Infer(ctx context.Context, req types.InferRequest, w io.Writer, flush func()) error
	Cancel(requestID string)
	Tokenize(ctx context.Context, req types.TokenizeRequest) (types.TokenizeResponse, error)
	ClearCache(force bool) int
	Sweep()
	Ready() bool
}

// NewMux builds the HTTP router for the daemon.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/models", handleModels(svc))
	r.Get("/status", handleStatus(svc))
	r.Post("/infer", handleInfer(svc))
	r.Post("/cancel/{requestID}", handleCancel(svc))
	r.Post("/tokenize", handleTokenize(svc))
	r.Post("/cache/clear", handleCacheClear(svc))
	r.Post("/cache/sweep", handleCacheSweep(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("shutting down"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleModels godoc
// @Summary List models
// @Produce json
// @Success 200 {object} types.ModelsResponse
// @Router /models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(types.ModelsResponse{Models: svc.ListModels()}); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	}
}

// handleStatus godoc
// @Summary Queue and cache status
// @Produce json
// @Success 200 {object} types.StatusResponse
// @Router /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(svc.Status()); err != nil {
			writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
		}
	}
}

// handleInfer godoc
// @Summary Submit an inference request and stream NDJSON tokens
// @Accept json
// @Produce application/x-ndjson
// @Param request body types.InferRequest true "inference request"
// @Success 200 {string} string "NDJSON token stream"
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Failure 503 {object} types.ErrorResponse
// @Router /infer [post]
func handleInfer(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.InferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.Prompt) == "" {
			writeJSONError(w, http.StatusBadRequest, "prompt is required")
			return
		}

		w.Header().Set("Content-Type", "application/x-ndjson")
		var flush func()
		if f, ok := w.(http.Flusher); ok {
			flush = f.Flush
		}
		lvl := requestLogLevel(r)
		writer := io.Writer(w)
		if lvl >= LevelDebug {
			writer = io.MultiWriter(w, &loggingLineWriter{})
		}
		// Once stream bytes reach the client the 200 is committed and an
		// error status can no longer be sent.
		sw := &sentWriter{w: writer}
		start := time.Now()
		logInfer(r, lvl, "infer start", 0, 0, req.Model)

		// Join server base context with request context so shutdown cancels work too.
		joinedCtx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.Infer(joinedCtx, req, sw, flush); err != nil {
			// Client disconnect or shutdown: nothing sensible left to write.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status := errorStatus(err)
			if sw.sent {
				// Mid-stream failure; the error travelled as the final
				// NDJSON line.
				logInfer(r, lvl, "infer end", status, time.Since(start), req.Model)
				return
			}
			writeJSONError(w, status, err.Error())
			logInfer(r, lvl, "infer end", status, time.Since(start), req.Model)
			return
		}
		logInfer(r, lvl, "infer end", http.StatusOK, time.Since(start), req.Model)
	}
}

// sentWriter records whether any response bytes went out. Infer returns
// only after the worker is done with the writer, so the flag is read
// without a lock.
type sentWriter struct {
	w    io.Writer
	sent bool
}

func (sw *sentWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		sw.sent = true
	}
	return sw.w.Write(p)
}

// errorStatus maps well-known runner errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case runner.IsModelNotFound(err):
		return http.StatusNotFound
	case runner.IsRequestCancelled(err):
		return http.StatusConflict
	case runner.IsDependencyUnavailable(err), runner.IsShuttingDown(err):
		return http.StatusServiceUnavailable
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func logInfer(r *http.Request, lvl LogLevel, msg string, status int, dur time.Duration, model string) {
	if lvl < LevelInfo {
		return
	}
	if zlog != nil {
		z := zlog.Info().Str("path", r.URL.Path).Str("model", model)
		if status != 0 {
			z = z.Int("status", status).Dur("dur", dur)
		}
		if rid := middleware.GetReqID(r.Context()); rid != "" {
			z = z.Str("http_request_id", rid)
		}
		z.Msg(msg)
		return
	}
	if status != 0 {
		log.Printf("%s status=%d dur=%s model=%s", msg, status, dur, model)
	} else {
		log.Printf("%s model=%s", msg, model)
	}
}

// handleCancel godoc
// @Summary Mark a request cancelled
// @Produce json
// @Param requestID path string true "request identifier"
// @Success 202 {object} types.CancelResponse
// @Router /cancel/{requestID} [post]
func handleCancel(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "requestID")
		if id == "" {
			writeJSONError(w, http.StatusBadRequest, "request id is required")
			return
		}
		svc.Cancel(id)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(types.CancelResponse{RequestID: id, Cancelled: true})
	}
}

// handleTokenize godoc
// @Summary Count tokens for a piece of text
// @Accept json
// @Produce json
// @Param request body types.TokenizeRequest true "tokenize request"
// @Success 200 {object} types.TokenizeResponse
// @Failure 400 {object} types.ErrorResponse
// @Failure 404 {object} types.ErrorResponse
// @Router /tokenize [post]
func handleTokenize(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.TokenizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if req.Input == "" {
			writeJSONError(w, http.StatusBadRequest, "input is required")
			return
		}
		resp, err := svc.Tokenize(r.Context(), req)
		if err != nil {
			writeJSONError(w, errorStatus(err), err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// handleCacheClear godoc
// @Summary Evict cached model resources
// @Produce json
// @Param force query bool false "evict entries even while borrowed (frees deferred to last release)"
// @Success 200 {object} types.ClearCacheResponse
// @Router /cache/clear [post]
func handleCacheClear(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		force, _ := strconv.ParseBool(r.URL.Query().Get("force"))
		cleared := svc.ClearCache(force)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.ClearCacheResponse{Cleared: cleared, Forced: force})
	}
}

// handleCacheSweep godoc
// @Summary Trigger an immediate idle-eviction sweep
// @Success 202 {string} string "accepted"
// @Router /cache/sweep [post]
func handleCacheSweep(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Sweep()
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("sweep scheduled"))
	}
}
