package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
	"github.com/smokyabdulrahman/shaum/internal/forecast"
	"github.com/smokyabdulrahman/shaum/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type brokenStore struct{}

func (brokenStore) LoadProfile(context.Context) (fasting.Profile, error) {
	return fasting.Profile{}, errors.New("disk I/O error")
}

func (brokenStore) Health(context.Context) error { return errors.New("disk I/O error") }

func setup(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	r := New(Options{
		Store:     s,
		Generator: forecast.New(forecast.Options{}),
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC) },
	})
	return r, s
}

func get(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func data(body map[string]any) map[string]any {
	return body["data"].(map[string]any)
}

func TestHealth(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "ok", data(body)["status"])
}

func TestHealth_Unavailable(t *testing.T) {
	r := New(Options{Store: brokenStore{}, Generator: forecast.New(forecast.Options{})})

	w, body := get(t, r, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "UNAVAILABLE", body["error"].(map[string]any)["code"])
}

func TestToday(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/api/v1/today")
	require.Equal(t, http.StatusOK, w.Code)

	d := data(body)
	assert.Equal(t, "2024-03-11", d["date"])
	assert.Equal(t, "ramadhan", d["recommendation"].(map[string]any)["type"])
}

func TestDay_ReadsProfileEachRequest(t *testing.T) {
	r, s := setup(t)

	_, body := get(t, r, "/api/v1/days/2024-03-05")
	rec := data(body)["recommendation"].(map[string]any)
	assert.Nil(t, rec["type"])

	require.NoError(t, s.SaveConfig(context.Background(), fasting.Qadha, fasting.RecurrenceConfig{
		Weekdays: []time.Weekday{time.Tuesday},
	}))

	_, body = get(t, r, "/api/v1/days/2024-03-05")
	rec = data(body)["recommendation"].(map[string]any)
	assert.Equal(t, "qadha", rec["type"])
	assert.Equal(t, true, rec["isQadha"])
}

func TestDay_Forbidden(t *testing.T) {
	r, _ := setup(t)

	_, body := get(t, r, "/api/v1/days/2024-06-17")
	rec := data(body)["recommendation"].(map[string]any)
	assert.Equal(t, true, rec["isForbidden"])
	assert.Equal(t, fasting.EidAlAdha, rec["reason"])
}

func TestDay_BadDate(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/api/v1/days/11-03-2024")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", body["error"].(map[string]any)["code"])
}

func TestMonth_Gregorian(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/api/v1/months/2024/3")
	require.Equal(t, http.StatusOK, w.Code)

	d := data(body)
	assert.Equal(t, "gregorian", d["index"])
	days := d["days"].([]any)
	require.Len(t, days, 31)
	assert.Equal(t, "2024-03-01", days[0].(map[string]any)["date"])
}

func TestMonth_Hijri(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/api/v1/months/1445/9?index=hijri")
	require.Equal(t, http.StatusOK, w.Code)

	days := data(body)["days"].([]any)
	require.Len(t, days, 30)
	assert.Equal(t, "2024-03-11", days[0].(map[string]any)["date"])
}

func TestMonth_BadRequests(t *testing.T) {
	r, _ := setup(t)

	for _, path := range []string{
		"/api/v1/months/2024/13",
		"/api/v1/months/x/3",
		"/api/v1/months/2024/y",
		"/api/v1/months/2024/3?index=julian",
	} {
		w, _ := get(t, r, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}
}

func TestProfileFailure(t *testing.T) {
	r := New(Options{Store: brokenStore{}, Generator: forecast.New(forecast.Options{})})

	w, body := get(t, r, "/api/v1/today")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", body["error"].(map[string]any)["code"])
}

func TestNoRoute(t *testing.T) {
	r, _ := setup(t)

	w, body := get(t, r, "/api/v2/today")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestCORS(t *testing.T) {
	r, _ := setup(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
