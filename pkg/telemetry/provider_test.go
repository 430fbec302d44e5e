package telemetry

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProvider_ExposesRecorderMetrics(t *testing.T) {
	ctx := context.Background()
	p, err := InitProvider(ctx, "coach-test", "0.0.0")
	if err != nil {
		t.Fatalf("InitProvider: %v", err)
	}
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })

	r, err := NewRecorder(p.MeterProvider)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	r.SessionStarted(ctx, "s1")
	r.TickSkipped(ctx, "s1")

	srv := httptest.NewServer(p.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	for _, name := range []string{"coach_sessions_started", "coach_ticks_skipped"} {
		if !strings.Contains(string(body), name) {
			t.Errorf("expected %s in exposition", name)
		}
	}
}
