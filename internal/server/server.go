// Package server exposes the fasting calendar over HTTP.
package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
)

// ProfileStore supplies the user's settings. The profile is loaded for every
// request, so edits made through the CLI apply immediately.
type ProfileStore interface {
	LoadProfile(ctx context.Context) (fasting.Profile, error)
	Health(ctx context.Context) error
}

// Options configures the HTTP handler.
type Options struct {
	Store     ProfileStore
	Generator *forecast.Generator
	Logger    zerolog.Logger
	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

type handler struct {
	store ProfileStore
	gen   *forecast.Generator
	log   zerolog.Logger
	now   func() time.Time
}

// New builds the router.
func New(opts Options) *gin.Engine {
	h := &handler{
		store: opts.Store,
		gen:   opts.Generator,
		log:   opts.Logger.With().Str("component", "server").Logger(),
		now:   opts.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods:    []string{"GET", "OPTIONS", "HEAD"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:   []string{"Content-Length"},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/health", h.health)

	v1 := r.Group("/api/v1")
	v1.GET("/today", h.today)
	v1.GET("/days/:date", h.day)
	v1.GET("/months/:year/:month", h.month)

	r.NoRoute(func(c *gin.Context) {
		writeNotFound(c, "route not found")
	})

	return r
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		ev := h.log.Debug()
		if c.Writer.Status() >= http.StatusInternalServerError {
			ev = h.log.Error()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func (h *handler) health(c *gin.Context) {
	if err := h.store.Health(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		writeUnavailable(c, "database unavailable")
		return
	}
	writeSuccess(c, gin.H{"status": "ok"})
}

func (h *handler) today(c *gin.Context) {
	h.writeDay(c, h.now())
}

func (h *handler) day(c *gin.Context) {
	date, err := time.Parse(fasting.DateLayout, c.Param("date"))
	if err != nil {
		writeBadRequest(c, "date must be YYYY-MM-DD")
		return
	}
	h.writeDay(c, date)
}

func (h *handler) writeDay(c *gin.Context, date time.Time) {
	p, ok := h.profile(c)
	if !ok {
		return
	}
	for e := range h.gen.Range(c.Request.Context(), date, 1, p) {
		writeSuccess(c, e)
		return
	}
	writeInternalError(c, "no forecast for date")
}

// MonthResponse is the body of a month request.
type MonthResponse struct {
	Index string           `json:"index"`
	Year  int              `json:"year"`
	Month int              `json:"month"`
	Days  []forecast.Entry `json:"days"`
}

func (h *handler) month(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		writeBadRequest(c, "year must be a number")
		return
	}
	month, err := strconv.Atoi(c.Param("month"))
	if err != nil {
		writeBadRequest(c, "month must be a number")
		return
	}
	idx, err := forecast.ParseIndex(c.Query("index"))
	if err != nil {
		writeBadRequest(c, err.Error())
		return
	}

	req := forecast.Request{Index: idx, Year: year, Month: month}
	if err := req.Validate(); err != nil {
		writeBadRequest(c, err.Error())
		return
	}
	p, ok := h.profile(c)
	if !ok {
		return
	}
	req.Profile = p

	writeSuccess(c, MonthResponse{
		Index: idx.String(),
		Year:  year,
		Month: month,
		Days:  h.gen.Collect(c.Request.Context(), req),
	})
}

func (h *handler) profile(c *gin.Context) (fasting.Profile, bool) {
	p, err := h.store.LoadProfile(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load profile")
		writeInternalError(c, "failed to load settings")
		return fasting.Profile{}, false
	}
	return p, true
}
