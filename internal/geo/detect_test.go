package geo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// serveGeo points geoAPIURL at a test server for the duration of the test.
func serveGeo(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	origURL := geoAPIURL
	geoAPIURL = server.URL
	t.Cleanup(func() { geoAPIURL = origURL })
}

func TestDetectLocation_Success(t *testing.T) {
	serveGeo(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ipAPIResponse{
			Status:      "success",
			Lat:         21.4225,
			Lon:         39.8262,
			City:        "Mecca",
			Country:     "Saudi Arabia",
			CountryCode: "SA",
			Timezone:    "Asia/Riyadh",
		})
	})

	loc, err := DetectLocation(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Location{Latitude: 21.4225, Longitude: 39.8262, City: "Mecca", Country: "Saudi Arabia", CountryCode: "SA", Timezone: "Asia/Riyadh"}
	if *loc != want {
		t.Errorf("DetectLocation() = %+v, want %+v", *loc, want)
	}
	if got := CalendarMethod(loc); got != MethodUAQ {
		t.Errorf("CalendarMethod() = %q, want %q", got, MethodUAQ)
	}
}

func TestDetectLocation_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "failed status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(ipAPIResponse{Status: "fail", Message: "reserved range"})
			},
			wantErr: "reserved range",
		},
		{
			name: "http error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal error", http.StatusInternalServerError)
			},
			wantErr: "500",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json at all"))
			},
			wantErr: "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			serveGeo(t, tt.handler)

			_, err := DetectLocation(context.Background())
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error should contain %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestDetectLocation_ConnectionRefused(t *testing.T) {
	origURL := geoAPIURL
	geoAPIURL = "http://127.0.0.1:1" // nothing listening
	defer func() { geoAPIURL = origURL }()

	if _, err := DetectLocation(context.Background()); err == nil {
		t.Fatal("expected error for connection refused, got nil")
	}
}

func TestDetectLocation_Canceled(t *testing.T) {
	serveGeo(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ipAPIResponse{Status: "success"})
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := DetectLocation(ctx); err == nil {
		t.Fatal("expected error for canceled context, got nil")
	}
}

func TestCalendarMethod(t *testing.T) {
	tests := []struct {
		name string
		loc  *Location
		want string
	}{
		{"nil location", nil, MethodHJCoSA},
		{"saudi arabia", &Location{CountryCode: "SA"}, MethodUAQ},
		{"turkey lowercase", &Location{CountryCode: "tr"}, MethodDiyanet},
		{"indonesia", &Location{CountryCode: "ID"}, MethodHJCoSA},
		{"unknown", &Location{}, MethodHJCoSA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CalendarMethod(tt.loc); got != tt.want {
				t.Errorf("CalendarMethod() = %q, want %q", got, tt.want)
			}
		})
	}
}
