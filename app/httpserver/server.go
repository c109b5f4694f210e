// Package httpserver exposes health, metrics and read-only ranking endpoints.
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	matchdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/match/domain"
	rankingservice "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/application"
	rankingdomain "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/domain"
	rankinghandlers "github.com/Black-And-White-Club/geoguessr-bot/app/modules/ranking/infrastructure/handlers"
	"github.com/Black-And-White-Club/geoguessr-bot/app/shared/events"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators served over HTTP.
type Deps struct {
	DB       Pinger
	Rankings rankingservice.Service
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handlers{deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	if deps.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/records", h.records)
		r.Route("/rankings/{map}/{timeLimit}", func(r chi.Router) {
			r.Get("/", h.ranking)
			r.Get("/chart.png", h.chart)
			r.Get("/export.xlsx", h.export)
		})
	})
	return r
}

// Server runs the HTTP router until its context ends.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// NewServer creates a server listening on addr.
func NewServer(addr string, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "HTTP server listening", slog.String("address", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.deps.DB != nil {
		if err := h.deps.DB.PingContext(r.Context()); err != nil {
			h.deps.Logger.WarnContext(r.Context(), "Health check failed", slog.Any("error", err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *handlers) ranking(w http.ResponseWriter, r *http.Request) {
	category, standings, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, events.RankingComputedPayload{
		Map:       category.Map,
		TimeLimit: category.TimeLimit,
		Matches:   standings.Matches,
		Totals:    rankinghandlers.StandingEntries(standings.Totals),
		Averages:  rankinghandlers.StandingEntries(standings.Averages),
	})
}

func (h *handlers) chart(w http.ResponseWriter, r *http.Request) {
	category, standings, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	img, err := rankingservice.RenderStandingsChart(category.String(), standings.Totals, rankingservice.DefaultPalette)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(img)
}

func (h *handlers) export(w http.ResponseWriter, r *http.Request) {
	category, standings, ok := h.aggregate(w, r)
	if !ok {
		return
	}
	data, err := rankingservice.ExportStandingsXLSX(category, standings)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("rankings-%s-%d.xlsx", category.Map, category.TimeLimit)))
	_, _ = w.Write(data)
}

func (h *handlers) records(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Rankings.Records(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]events.CategoryRecords, 0, len(records))
	for _, c := range records {
		top := make([]events.RecordEntry, len(c.Top))
		for i, rec := range c.Top {
			top[i] = events.RecordEntry{Rank: rec.Rank, Player: rec.Player, Score: rec.Score, Link: rec.Link}
		}
		out = append(out, events.CategoryRecords{Map: c.Category.Map, TimeLimit: c.Category.TimeLimit, Top: top})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) aggregate(w http.ResponseWriter, r *http.Request) (matchdomain.Category, *rankingdomain.Standings, bool) {
	timeLimit, err := strconv.Atoi(chi.URLParam(r, "timeLimit"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "time limit must be a number of seconds"})
		return matchdomain.Category{}, nil, false
	}
	category := matchdomain.Category{Map: chi.URLParam(r, "map"), TimeLimit: timeLimit}

	standings, err := h.deps.Rankings.Aggregate(r.Context(), category)
	if err != nil {
		h.fail(w, r, err)
		return category, nil, false
	}
	return category, standings, true
}

// fail maps validation errors to 400 and hides everything else behind the
// generic reason.
func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, matchdomain.ErrValidation) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	h.deps.Logger.ErrorContext(r.Context(), "Request failed",
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Any("error", err),
	)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": events.GenericFailureReason})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
