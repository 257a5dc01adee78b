package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSanitizeDataset(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "known dataset passes through", in: "raa", want: "raa"},
		{name: "empty falls back to default", in: "", want: "clrd"},
		{name: "unknown falls back to default", in: "not-a-triangle", want: "clrd"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SanitizeDataset(tc.in); got != tc.want {
				t.Errorf("SanitizeDataset(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClientSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/summary" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Triangle string `json:"triangle"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(TriangleSummary{
			Name:  req.Triangle,
			Shape: []int{1, 1, 10, 10},
			Grain: "OYDY",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.Summary(context.Background(), "raa")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "raa" || got.Grain != "OYDY" {
		t.Errorf("unexpected summary: %+v", got)
	}
}

func TestClientIBNR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p IBNRParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if p.Method != "chainladder" {
			t.Errorf("expected chainladder method, got %q", p.Method)
		}
		json.NewEncoder(w).Encode(IBNRResult{
			Triangle:  p.Triangle,
			Method:    p.Method,
			Ultimates: map[string]float64{"1981": 18834},
			IBNR:      map[string]float64{"1981": 0},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got, err := c.IBNR(context.Background(), IBNRParams{Triangle: "raa", Method: "chainladder"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Ultimates["1981"] != 18834 {
		t.Errorf("unexpected ultimates: %v", got.Ultimates)
	}
}

func TestClientNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "engine exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.Summary(context.Background(), "raa"); err == nil {
		t.Fatal("expected error for non-200 engine response")
	}
}
