package api

import (
	"net/http/httptest"
	"testing"
)

func TestIntQuery(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		param    string
		fallback int
		want     int
	}{
		{name: "present", url: "/sessions?limit=25", param: "limit", fallback: 50, want: 25},
		{name: "absent falls back", url: "/sessions", param: "limit", fallback: 50, want: 50},
		{name: "garbage falls back", url: "/sessions?offset=soon", param: "offset", fallback: 0, want: 0},
		{name: "other params ignored", url: "/sessions?limit=25", param: "offset", fallback: 10, want: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			if got := intQuery(r, tt.param, tt.fallback); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
