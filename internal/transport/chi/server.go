package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mapsearch/internal/domain"
	"github.com/kailas-cloud/mapsearch/internal/domain/listing"
	"github.com/kailas-cloud/mapsearch/internal/domain/playlist"
	"github.com/kailas-cloud/mapsearch/internal/domain/search/request"
	healthuc "github.com/kailas-cloud/mapsearch/internal/usecase/health"
)

// ViewerHeader carries the caller's user id, set by the gateway.
const ViewerHeader = "X-User-ID"

// retryAfterSeconds is advertised on 503 responses from the search backend.
const retryAfterSeconds = 1

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the playlist search and listing API.
type Server struct {
	search        Searcher
	listing       Lister
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, listing Lister, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		search:  search,
		listing: listing,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		backendUnavailableHandler,
	}
	return s
}

// Mount registers the API routes on r.
func (s *Server) Mount(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Route("/api/v1/playlists", func(r chi.Router) {
		r.Get("/search", s.SearchPlaylists)
		r.Get("/latest", s.LatestPlaylists)
		r.Get("/user/{userId}", s.UserPlaylists)
	})
}

// SearchPlaylists handles GET /api/v1/playlists/search.
func (s *Server) SearchPlaylists(w http.ResponseWriter, r *http.Request) {
	vis, err := visibilityFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var (
		text, sortOrder                 *string
		page, pageSize                  *int
		minNps, maxNps                  *float64
		from, to                        *time.Time
		curated, verified, includeEmpty *bool
		seed                            *int64
	)
	q := r.URL.Query()
	if err := bindAll(q, map[string]any{
		"q":            &text,
		"sortOrder":    &sortOrder,
		"page":         &page,
		"pageSize":     &pageSize,
		"minNps":       &minNps,
		"maxNps":       &maxNps,
		"from":         &from,
		"to":           &to,
		"curated":      &curated,
		"verified":     &verified,
		"includeEmpty": &includeEmpty,
		"seed":         &seed,
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	req, err := request.New(request.Params{
		Query:        deref(text),
		SortOrder:    deref(sortOrder),
		Page:         deref(page),
		PageSize:     deref(pageSize),
		MinNps:       minNps,
		MaxNps:       maxNps,
		From:         from,
		To:           to,
		Curated:      curated,
		Verified:     verified,
		IncludeEmpty: deref(includeEmpty),
		Seed:         seed,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), &req, vis)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SearchResponse{
		Docs:      playlistsToResponse(res.Items),
		SortOrder: string(res.Order),
		Total:     res.Total,
		Page:      res.Page,
		PageSize:  res.PageSize,
	})
}

// LatestPlaylists handles GET /api/v1/playlists/latest.
func (s *Server) LatestPlaylists(w http.ResponseWriter, r *http.Request) {
	vis, err := visibilityFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var (
		sortName, token *string
		before, after   *time.Time
		pageSize        *int
	)
	if err := bindAll(r.URL.Query(), map[string]any{
		"sort":     &sortName,
		"cursor":   &token,
		"before":   &before,
		"after":    &after,
		"pageSize": &pageSize,
	}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	sort, err := listing.ParseSort(deref(sortName))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	l, err := listing.NewLatest(sort, deref(token), before, after, deref(pageSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	page, err := s.listing.Latest(r.Context(), &l, vis)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LatestResponse{
		Docs: playlistsToResponse(page.Items),
		Next: page.Next,
		Prev: page.Prev,
	})
}

// UserPlaylists handles GET /api/v1/playlists/user/{userId}.
func (s *Server) UserPlaylists(w http.ResponseWriter, r *http.Request) {
	vis, err := visibilityFrom(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	var userID int64
	err = runtime.BindStyledParameterWithOptions("simple", "userId", chi.URLParam(r, "userId"), &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("invalid format for parameter userId: %s", err))
		return
	}

	var (
		page  *int
		basic *bool
	)
	if err := bindAll(r.URL.Query(), map[string]any{"page": &page, "basic": &basic}); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	pageNum := request.ClampPage(deref(page))

	if deref(basic) {
		items, err := s.listing.ByUserBasic(r.Context(), userID, vis, pageNum)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, UserPlaylistsBasicResponse{
			Docs: basicsToResponse(items),
			Page: pageNum,
		})
		return
	}

	items, err := s.listing.ByUser(r.Context(), userID, vis, pageNum)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserPlaylistsResponse{
		Docs: playlistsToResponse(items),
		Page: pageNum,
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// visibilityFrom reads the viewer from ViewerHeader. No header is anonymous.
func visibilityFrom(r *http.Request) (playlist.Visibility, error) {
	raw := strings.TrimSpace(r.Header.Get(ViewerHeader))
	if raw == "" {
		return playlist.Anonymous(), nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return playlist.Visibility{}, fmt.Errorf("invalid %s header", ViewerHeader)
	}
	return playlist.ViewerOf(id), nil
}

// bindAll binds optional form-style query parameters into pointer targets.
func bindAll(q url.Values, params map[string]any) error {
	for name, dest := range params {
		if err := runtime.BindQueryParameter("form", true, false, name, q, dest); err != nil {
			return fmt.Errorf("invalid format for parameter %s: %w", name, err)
		}
	}
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidRequest,
		domain.ErrNotFound,
		domain.ErrSearchBackendUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// backendUnavailableHandler maps index failures to 503 with a retry hint.
func backendUnavailableHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrSearchBackendUnavailable) {
		return false
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	writeError(w, http.StatusServiceUnavailable, CodeBackendUnavailable, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
