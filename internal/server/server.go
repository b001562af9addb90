package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/iwvelando/loan-review/internal/abusiveness"
	"github.com/iwvelando/loan-review/internal/ratesource"
	"github.com/iwvelando/loan-review/pkg/amortization"
	"github.com/iwvelando/loan-review/pkg/constants"
	"github.com/iwvelando/loan-review/pkg/datetime"
	"github.com/iwvelando/loan-review/pkg/format"
	"github.com/iwvelando/loan-review/pkg/output"
	"go.uber.org/zap"
)

// Error codes returned in error responses.
const (
	codeInvalidRequest  = "invalid_request"
	codeUnavailable     = "reference_rate_unavailable"
	codeBodyTooLarge    = "body_too_large"
	codeInternalFailure = "internal_error"
)

// Options tunes the handler.
type Options struct {
	MaxBodySize    int64
	RequestTimeout time.Duration
	Version        string
	Catalog        *ratesource.Catalog
}

type handler struct {
	logger      *zap.Logger
	comparator  *abusiveness.Comparator
	catalog     *ratesource.Catalog
	maxBodySize int64
	version     string
}

// amount accepts a JSON number or a pt-BR amount string ("60.000,00").
type amount float64

func (a *amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return err
		}
		value, err := format.ParseCurrency(text)
		if err != nil {
			return err
		}
		*a = amount(value)
		return nil
	}
	var value float64
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return err
	}
	*a = amount(value)
	return nil
}

type evaluateRequest struct {
	Modality        string               `json:"modality"`
	ContractDate    string               `json:"contractDate"`
	Principal       amount               `json:"principal"`
	ContractedRate  float64              `json:"contractedRate"`
	TermMonths      int                  `json:"termMonths"`
	Amortization    string               `json:"amortization"`
	CustomTolerance *float64             `json:"customTolerance,omitempty"`
	Theses          []abusiveness.Thesis `json:"theses,omitempty"`
}

type evaluateResponse struct {
	ID string `json:"id"`
	output.Document
	Duration string `json:"duration"`
}

type errorResponse struct {
	ID    string `json:"id,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewHandler constructs the HTTP handler that serves the evaluation API.
func NewHandler(logger *zap.Logger, provider abusiveness.RateProvider, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxBodySize <= 0 {
		opts.MaxBodySize = constants.DefaultMaxBodySizeBytes
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}
	if opts.Catalog == nil {
		opts.Catalog = ratesource.DefaultCatalog()
	}

	trimmedVersion := strings.TrimSpace(opts.Version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:      logger,
		comparator:  abusiveness.NewComparator(logger, provider),
		catalog:     opts.Catalog,
		maxBodySize: opts.MaxBodySize,
		version:     trimmedVersion,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(opts.RequestTimeout)).Post("/evaluate", h.handleEvaluate)
		r.Get("/modalities", h.handleModalities)
		r.Get("/version", h.handleVersion)
	})

	return r
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := uuid.NewString()
	w.Header().Set("X-Evaluation-ID", id)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var payload evaluateRequest
	if err := decoder.Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, id, http.StatusRequestEntityTooLarge, codeBodyTooLarge,
				fmt.Sprintf("request body exceeds limit of %d bytes", h.maxBodySize))
			return
		}
		h.respondError(w, id, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	req, err := payload.toRequest()
	if err != nil {
		h.respondError(w, id, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	report, err := h.comparator.Evaluate(r.Context(), req)
	if err != nil {
		status, code := classify(err)
		h.respondError(w, id, status, code, err.Error())
		return
	}

	duration := time.Since(start)
	h.logger.Info("evaluation completed",
		zap.String("op", "server.handleEvaluate"),
		zap.String("id", id),
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.String("modality", req.Modality),
		zap.Duration("duration", duration),
	)

	h.writeJSON(w, http.StatusOK, evaluateResponse{
		ID:       id,
		Document: output.NewDocument(report),
		Duration: duration.String(),
	})
}

func (p evaluateRequest) toRequest() (abusiveness.Request, error) {
	contractDate, err := datetime.ParseContractDate(p.ContractDate)
	if err != nil {
		return abusiveness.Request{}, err
	}
	convention, err := amortization.ParseConvention(p.Amortization)
	if err != nil {
		return abusiveness.Request{}, err
	}

	theses := p.Theses
	if p.CustomTolerance != nil {
		theses = abusiveness.WithCustomTolerance(theses, *p.CustomTolerance)
	}

	return abusiveness.Request{
		Modality:       strings.TrimSpace(p.Modality),
		ContractDate:   contractDate,
		Principal:      float64(p.Principal),
		ContractedRate: p.ContractedRate,
		TermMonths:     p.TermMonths,
		Convention:     convention,
		Theses:         theses,
	}, nil
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, abusiveness.ErrInvalidRequest), errors.Is(err, amortization.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidRequest
	case errors.Is(err, abusiveness.ErrReferenceRateUnavailable):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternalFailure
	}
}

func (h *handler) handleModalities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"modalities": h.catalog.Modalities(),
	})
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			zap.String("op", "server.requestLogger"),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) respondError(w http.ResponseWriter, id string, status int, code, msg string) {
	log := h.logger.Warn
	if status >= http.StatusInternalServerError && code != codeUnavailable {
		log = h.logger.Error
	}
	log("evaluation request failed",
		zap.String("op", "server.handleEvaluate"),
		zap.String("id", id),
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, errorResponse{ID: id, Code: code, Error: msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
