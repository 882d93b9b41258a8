package apihttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"lcatricity/internal/apperr"
	"lcatricity/internal/audit"
	"lcatricity/internal/auth"
	availapp "lcatricity/internal/availability/application"
	genapp "lcatricity/internal/generation/application"
	impactapp "lcatricity/internal/impact/application"
	"lcatricity/internal/observability/metrics"
	referencedata "lcatricity/internal/referencedata/domain"
)

// ReferenceData serves the cached reference tables.
type ReferenceData interface {
	Regions() []referencedata.Region
	GenerationTypes() []referencedata.GenerationType
	GenerationTypeMappings() []referencedata.GenerationTypeMapping
	ImpactCategories() []referencedata.ImpactCategory
}

// ResponseCache stores encoded JSON responses.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, body []byte) error
}

// CacheFlusher empties a ResponseCache.
type CacheFlusher interface {
	Flush(ctx context.Context) (int64, error)
}

// KeyFunc derives a response cache key from a request.
type KeyFunc func(path string, query url.Values) string

// Handler serves the query API.
type Handler struct {
	reference  ReferenceData
	generation *genapp.Service
	calculator *impactapp.Calculator
	reporter   *availapp.Reporter
	cache      ResponseCache
	cacheKey   KeyFunc
	flusher    CacheFlusher
	audit      audit.Logger
	logger     *slog.Logger
}

// Option configures the handler.
type Option func(*Handler)

// WithResponseCache enables caching of /generation and /calculate JSON responses.
func WithResponseCache(cache ResponseCache, key KeyFunc) Option {
	return func(h *Handler) {
		if cache == nil || key == nil {
			return
		}
		h.cache = cache
		h.cacheKey = key
		if flusher, ok := cache.(CacheFlusher); ok {
			h.flusher = flusher
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithAuditLogger records admin actions.
func WithAuditLogger(logger audit.Logger) Option {
	return func(h *Handler) {
		h.audit = logger
	}
}

// NewHandler constructs a Handler.
func NewHandler(reference ReferenceData, generation *genapp.Service, calculator *impactapp.Calculator, reporter *availapp.Reporter, opts ...Option) (*Handler, error) {
	if reference == nil {
		return nil, errors.New("api handler: nil reference data")
	}
	if generation == nil {
		return nil, errors.New("api handler: nil generation service")
	}
	if calculator == nil {
		return nil, errors.New("api handler: nil impact calculator")
	}
	if reporter == nil {
		return nil, errors.New("api handler: nil availability reporter")
	}
	h := &Handler{
		reference:  reference,
		generation: generation,
		calculator: calculator,
		reporter:   reporter,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Register mounts every query endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/list_regions", h.get(h.listRegions))
	mux.HandleFunc("/list_generation_types", h.get(h.listGenerationTypes))
	mux.HandleFunc("/list_generation_type_mappings", h.get(h.listGenerationTypeMappings))
	mux.HandleFunc("/list_impact_categories", h.get(h.listImpactCategories))
	mux.HandleFunc("/available_data_region", h.get(h.availableDataRegion))
	mux.HandleFunc("/datapoints_count_by_day", h.get(h.datapointsCountByDay))
	mux.HandleFunc("/generation", h.get(h.cached(h.getGeneration)))
	mux.HandleFunc("/calculate", h.get(h.calculate))
	mux.HandleFunc("/admin/response_cache/flush", h.flushResponseCache)
}

type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (h *Handler) get(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := fn(w, r); err != nil {
			writeError(w, r, h.logger, err)
		}
	}
}

// cached serves JSON responses from the response cache when one is configured.
// Only successful responses are stored.
func (h *Handler) cached(fn handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if h.cache == nil {
			return fn(w, r)
		}
		key := h.cacheKey(r.URL.Path, r.URL.Query())
		body, ok, err := h.cache.Get(r.Context(), key)
		switch {
		case err != nil:
			metrics.IncResponseCache(metrics.CacheError)
			h.logger.Warn("response cache get failed", "key", key, "err", err)
		case ok:
			metrics.IncResponseCache(metrics.CacheHit)
			writeBody(w, "application/json", body)
			return nil
		default:
			metrics.IncResponseCache(metrics.CacheMiss)
		}

		rec := &bufferedWriter{header: make(http.Header), status: http.StatusOK}
		if err := fn(rec, r); err != nil {
			return err
		}
		if rec.status == http.StatusOK {
			if err := h.cache.Set(r.Context(), key, rec.body.Bytes()); err != nil {
				metrics.IncResponseCache(metrics.CacheError)
				h.logger.Warn("response cache set failed", "key", key, "err", err)
			}
		}
		rec.flushTo(w)
		return nil
	}
}

func (h *Handler) listRegions(w http.ResponseWriter, r *http.Request) error {
	return writeRows(w, h.reference.Regions())
}

func (h *Handler) listGenerationTypes(w http.ResponseWriter, r *http.Request) error {
	return writeRows(w, h.reference.GenerationTypes())
}

func (h *Handler) listGenerationTypeMappings(w http.ResponseWriter, r *http.Request) error {
	return writeRows(w, h.reference.GenerationTypeMappings())
}

func (h *Handler) listImpactCategories(w http.ResponseWriter, r *http.Request) error {
	return writeRows(w, h.reference.ImpactCategories())
}

func (h *Handler) availableDataRegion(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	maxRows, err := parseOptionalInt(q, "max_rows")
	if err != nil {
		return err
	}
	rows, err := h.reporter.RegionCoverage(r.Context(), q.Get("date_start"), q.Get("date_end"), maxRows)
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

func (h *Handler) datapointsCountByDay(w http.ResponseWriter, r *http.Request) error {
	rows, err := h.reporter.DailyCounts(r.Context(), r.URL.Query().Get("region_code"))
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

func (h *Handler) getGeneration(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query()
	typeID, err := parseOptionalInt64(q, "generation_type_id")
	if err != nil {
		return err
	}
	maxDatapoints, err := parseOptionalInt(q, "max_datapoints")
	if err != nil {
		return err
	}
	rows, err := h.generation.Generation(r.Context(), genapp.Request{
		DateStart:        q.Get("date_start"),
		DateEnd:          q.Get("date_end"),
		RegionCode:       q.Get("region_code"),
		GenerationTypeID: typeID,
		MaxDatapoints:    maxDatapoints,
	})
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) error {
	format, err := parseFormat(r.URL.Query().Get("format"))
	if err != nil {
		return err
	}
	if format == formatJSON {
		return h.cached(h.calculateJSON)(w, r)
	}
	req, err := parseCalculateRequest(r.URL.Query())
	if err != nil {
		return err
	}
	rows, err := h.calculator.Calculate(r.Context(), req)
	if err != nil {
		return err
	}
	return writeExport(w, format, req, rows)
}

func (h *Handler) calculateJSON(w http.ResponseWriter, r *http.Request) error {
	req, err := parseCalculateRequest(r.URL.Query())
	if err != nil {
		return err
	}
	rows, err := h.calculator.Calculate(r.Context(), req)
	if err != nil {
		return err
	}
	return writeRows(w, rows)
}

func (h *Handler) flushResponseCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.flusher == nil {
		writeError(w, r, h.logger, apperr.NotFound("response cache is not configured"))
		return
	}
	removed, err := h.flusher.Flush(r.Context())
	if err != nil {
		writeError(w, r, h.logger, fmt.Errorf("flush response cache: %w", err))
		return
	}
	h.logger.Info("response cache flushed", "removed", removed)
	h.recordAudit(r, "response_cache.flush", map[string]int64{"removed": removed})
	writeStatusJSON(w, http.StatusOK, map[string]int64{"removed": removed})
}

func (h *Handler) recordAudit(r *http.Request, action string, metadata any) {
	if h.audit == nil {
		return
	}
	payload, err := json.Marshal(metadata)
	if err != nil {
		h.logger.Warn("audit metadata encode failed", "action", action, "err", err)
		return
	}
	entry := audit.Entry{
		Actor:     auth.SubjectFromContext(r.Context()),
		Role:      string(auth.RoleFromContext(r.Context())),
		Action:    action,
		Metadata:  payload,
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
	if err := h.audit.Log(r.Context(), entry); err != nil {
		h.logger.Warn("audit log failed", "action", action, "err", err)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseCalculateRequest(q url.Values) (impactapp.Request, error) {
	raw := q.Get("impact_category_id")
	if raw == "" {
		return impactapp.Request{}, apperr.Validation("impact_category_id is required")
	}
	categoryID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return impactapp.Request{}, apperr.Validation("impact_category_id must be an integer, got %q", raw)
	}
	maxDatapoints, err := parseOptionalInt(q, "max_datapoints")
	if err != nil {
		return impactapp.Request{}, err
	}
	return impactapp.Request{
		DateStart:        q.Get("date_start"),
		DateEnd:          q.Get("date_end"),
		RegionCode:       q.Get("region_code"),
		ImpactCategoryID: categoryID,
		MaxDatapoints:    maxDatapoints,
	}, nil
}

func parseOptionalInt64(q url.Values, key string) (*int64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Validation("%s must be an integer, got %q", key, raw)
	}
	return &value, nil
}

func parseOptionalInt(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("%s must be an integer, got %q", key, raw)
	}
	return value, nil
}

// writeRows encodes rows as a JSON array; nil encodes as [].
func writeRows[T any](w http.ResponseWriter, rows []T) error {
	if rows == nil {
		rows = []T{}
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	writeBody(w, "application/json", body)
	return nil
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// bufferedWriter captures a response so it can be cached before it is sent.
type bufferedWriter struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) Header() http.Header { return b.header }

func (b *bufferedWriter) Write(p []byte) (int, error) { return b.body.Write(p) }

func (b *bufferedWriter) WriteHeader(status int) { b.status = status }

func (b *bufferedWriter) flushTo(w http.ResponseWriter) {
	for k, v := range b.header {
		w.Header()[k] = v
	}
	w.WriteHeader(b.status)
	_, _ = w.Write(b.body.Bytes())
}
