// Package server exposes ticketdrop's HTTP surface: the upload form, the
// multipart upload endpoint, the upload history listing, and a health
// probe. Routing and middleware use chi; all business sequencing lives in
// the uploader package.
package server

import (
	"context"
	"embed"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ticketdrop/ticketdrop/internal/history"
	"github.com/ticketdrop/ticketdrop/internal/uploader"
)

//go:embed static/index.html
var staticFS embed.FS

// multipartMemoryLimit is how much of a parsed multipart body is held in
// memory before the remainder spills to temp files (8 MiB). The upload is
// streamed from that spill file, so total memory stays bounded regardless
// of file size.
const multipartMemoryLimit = 8 << 20

// historyPageLimit caps the number of audit rows returned by GET /uploads.
const historyPageLimit = 100

// Uploader runs the upload chain for one request.
// uploader.Orchestrator is the real implementation.
type Uploader interface {
	Upload(ctx context.Context, req uploader.Request) (*uploader.Outcome, error)
}

// History lists recent upload audit records.
// history.Store is the real implementation.
type History interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Server holds the HTTP handler dependencies.
type Server struct {
	uploads   Uploader
	history   History // nil disables GET /uploads
	maxUpload int64
	logger    *slog.Logger
}

// New creates a Server. history may be nil, in which case the history
// endpoint is not registered.
func New(uploads Uploader, hist History, maxUpload int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		uploads:   uploads,
		history:   hist,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

// Router assembles the chi router with middleware and routes.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleForm)
	r.Post("/upload", s.handleUpload)
	r.Get("/healthz", s.handleHealth)

	if s.history != nil {
		r.Get("/uploads", s.handleHistory)
	}

	return r
}

// requestLogger logs one line per request with method, path, status, and
// duration, in the structured style used everywhere else.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int64("bytes", int64(ww.BytesWritten())),
			slog.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "form unavailable", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(page) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK")) //nolint:errcheck // client disconnects are not actionable
}
