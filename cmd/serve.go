package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/bng"
	"github.com/crisp-geo/crisp/internal/buffer"
	"github.com/crisp-geo/crisp/internal/chart"
	"github.com/crisp-geo/crisp/internal/config"
	"github.com/crisp-geo/crisp/internal/geodata"
	"github.com/crisp-geo/crisp/internal/insight"
	"github.com/crisp-geo/crisp/internal/webmap"
	"github.com/crisp-geo/crisp/pkg/places"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		s := &server{
			cfg:      cfg,
			geocoder: env.geocoder,
			runner:   env.runner,
			tiles:    env.tiles,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: s.router(),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// insightRunner abstracts the pipeline for handler tests.
type insightRunner interface {
	Run(ctx context.Context, req insight.Request) (*insight.Result, error)
}

// tileFetcher abstracts the basemap proxy for handler tests.
type tileFetcher interface {
	Fetch(ctx context.Context, style string, z, x, y int) ([]byte, error)
}

type server struct {
	cfg      *config.Config
	geocoder places.Client
	runner   insightRunner
	tiles    tileFetcher
}

func (s *server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/api/geocode", s.handleGeocode)
	r.Post("/api/insight", s.handleInsight)
	r.Get("/tiles/{style}/{z}/{x}/{y}.png", s.handleTile)
	r.Get("/", s.handleIndex)

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// geocodeResponse carries the address match metadata or a no-match
// notice.
type geocodeResponse struct {
	Matched bool          `json:"matched"`
	Notice  string        `json:"notice,omitempty"`
	Match   *places.Match `json:"match,omitempty"`
	Lon     float64       `json:"lon,omitempty"`
	Lat     float64       `json:"lat,omitempty"`
}

func (s *server) handleGeocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}

	match, err := s.geocoder.Find(r.Context(), query)
	if err != nil {
		zap.L().Error("geocode failed", zap.String("query", query), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocoding upstream failed"})
		return
	}
	if !match.Matched {
		writeJSON(w, http.StatusOK, geocodeResponse{
			Matched: false,
			Notice:  "No address found. Please check the address and try again.",
		})
		return
	}

	lon, lat := bng.ToWGS84(match.Easting, match.Northing)
	writeJSON(w, http.StatusOK, geocodeResponse{Matched: true, Match: match, Lon: lon, Lat: lat})
}

// insightRequest is the API shape of a dashboard interaction. Either a
// free-text query or explicit coordinates locate the centre.
type insightRequest struct {
	Query        string   `json:"query,omitempty"`
	Lon          float64  `json:"lon,omitempty"`
	Lat          float64  `json:"lat,omitempty"`
	RadiusMeters float64  `json:"radius_meters"`
	Layers       []string `json:"layers"`
	CrimeTypes   []string `json:"crime_types"`
	Start        string   `json:"start,omitempty"` // YYYY-MM-DD
	End          string   `json:"end,omitempty"`
}

type summaryPayload struct {
	Theme     string               `json:"theme"`
	Totals    []insight.BucketStat `json:"totals"`
	Series    insight.SeriesTable  `json:"series"`
	ChartHTML string               `json:"chart_html"`
}

type insightResponse struct {
	Address    *places.Match    `json:"address,omitempty"`
	Summaries  []summaryPayload `json:"summaries"`
	CrimeTypes []string         `json:"crime_types"`
	// Earliest and latest fetched event dates, for the date pickers.
	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`
	MapHTML string `json:"map_html"`
}

func (s *server) handleInsight(w http.ResponseWriter, r *http.Request) {
	var apiReq insightRequest
	if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req, match, notice, err := s.buildRequest(r.Context(), apiReq)
	if err != nil {
		zap.L().Error("build insight request", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "geocoding upstream failed"})
		return
	}
	if notice != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": notice})
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": eris.Cause(err).Error()})
		return
	}
	if max := s.cfg.Insight.MaxRadiusMeters; max > 0 && req.RadiusMeters > max {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"notice": fmt.Sprintf("radius exceeds the maximum of %gm", max),
		})
		return
	}

	res, err := s.runner.Run(r.Context(), req)
	if err != nil {
		zap.L().Error("insight pipeline failed", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "analytical store query failed"})
		return
	}

	resp := insightResponse{Address: match, CrimeTypes: insight.CrimeTypes(res.Events)}
	if min, max, ok := insight.DateRange(res.Events); ok {
		resp.MinDate = min.Format("2006-01-02")
		resp.MaxDate = max.Format("2006-01-02")
	}
	for _, summary := range res.Summaries {
		html, err := chart.RenderTrend("Monthly Crime Statistics", summary.Series)
		if err != nil {
			zap.L().Error("chart render failed", zap.String("theme", summary.Theme), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "chart rendering failed"})
			return
		}
		resp.Summaries = append(resp.Summaries, summaryPayload{
			Theme:     summary.Theme,
			Totals:    summary.Totals,
			Series:    summary.Series,
			ChartHTML: html,
		})
	}

	buf, err := buffer.Circle(req.Lon, req.Lat, req.RadiusMeters)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"notice": eris.Cause(err).Error()})
		return
	}
	address := ""
	if match != nil {
		address = match.Address
	}
	model, err := webmap.BuildModel(res, buf, address)
	if err != nil {
		zap.L().Error("map model failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "map rendering failed"})
		return
	}
	page, err := webmap.RenderPage(model)
	if err != nil {
		zap.L().Error("map page failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "map rendering failed"})
		return
	}
	resp.MapHTML = page

	writeJSON(w, http.StatusOK, resp)
}

// buildRequest resolves the centre (geocoding when a query is given)
// and converts the API shape to a pipeline request. A non-empty notice
// means the caller should fix their input.
func (s *server) buildRequest(ctx context.Context, apiReq insightRequest) (insight.Request, *places.Match, string, error) {
	req := insight.Request{
		Lon:          apiReq.Lon,
		Lat:          apiReq.Lat,
		RadiusMeters: apiReq.RadiusMeters,
		CrimeTypes:   apiReq.CrimeTypes,
	}
	for _, l := range apiReq.Layers {
		req.Layers = append(req.Layers, geodata.Source(l))
	}

	var err error
	if apiReq.Start != "" {
		if req.Start, err = time.Parse("2006-01-02", apiReq.Start); err != nil {
			return req, nil, fmt.Sprintf("invalid start date %q", apiReq.Start), nil
		}
	}
	if apiReq.End != "" {
		if req.End, err = time.Parse("2006-01-02", apiReq.End); err != nil {
			return req, nil, fmt.Sprintf("invalid end date %q", apiReq.End), nil
		}
	}

	if apiReq.Query == "" {
		return req, nil, "", nil
	}

	match, err := s.geocoder.Find(ctx, apiReq.Query)
	if err != nil {
		return req, nil, "", err
	}
	if !match.Matched {
		return req, nil, "No address found. Please check the address and try again.", nil
	}
	req.Lon, req.Lat = bng.ToWGS84(match.Easting, match.Northing)
	return req, match, "", nil
}

func (s *server) handleTile(w http.ResponseWriter, r *http.Request) {
	style, err := webmap.ResolveStyle(chi.URLParam(r, "style"))
	if err != nil {
		http.Error(w, "unknown basemap style", http.StatusNotFound)
		return
	}
	z, errZ := strconv.Atoi(chi.URLParam(r, "z"))
	x, errX := strconv.Atoi(chi.URLParam(r, "x"))
	y, errY := strconv.Atoi(chi.URLParam(r, "y"))
	if errZ != nil || errX != nil || errY != nil {
		http.Error(w, "invalid tile path", http.StatusBadRequest)
		return
	}

	data, err := s.tiles.Fetch(r.Context(), style, z, x, y)
	if err != nil {
		zap.L().Error("basemap tile fetch failed", zap.Error(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(data)
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := webmap.RenderPage(webmap.DefaultModel())
	if err != nil {
		zap.L().Error("index render failed", zap.Error(err))
		http.Error(w, "page rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
