package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZeraTS/ironbullet-sub001/internal/metrics"
	"github.com/ZeraTS/ironbullet-sub001/internal/runner"
)

func TestExporterUpdateReflectsInHandlerOutput(t *testing.T) {
	e := metrics.NewExporter()
	e.Update(runner.Snapshot{
		Attempted:    10,
		SuccessCount: 4,
		FailCount:    3,
		BanCount:     1,
		RetryCount:   2,
		CPM:          4,
		ElapsedMs:    1500,
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	e.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "ironbullet_success_total 4") {
		t.Errorf("body missing success gauge at expected value:\n%s", body)
	}
	if !strings.Contains(body, "ironbullet_attempted_total 10") {
		t.Errorf("body missing attempted gauge at expected value:\n%s", body)
	}
}

func TestNewExporterRegistersDistinctRegistries(t *testing.T) {
	a := metrics.NewExporter()
	b := metrics.NewExporter()

	a.Update(runner.Snapshot{SuccessCount: 1})
	b.Update(runner.Snapshot{SuccessCount: 99})

	reqA := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recA := httptest.NewRecorder()
	a.Handler().ServeHTTP(recA, reqA)

	if strings.Contains(recA.Body.String(), "ironbullet_success_total 99") {
		t.Fatal("exporter a's registry leaked exporter b's value")
	}
}
