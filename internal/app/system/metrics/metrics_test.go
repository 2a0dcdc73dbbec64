package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/brewcircles/internal/app/system/metrics"
	"github.com/dalemusser/brewcircles/internal/testutil"
	"github.com/go-chi/chi/v5"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestRecordOperation(t *testing.T) {
	m := metrics.New()
	m.RecordOperation("join", metrics.ResultOK)
	m.RecordOperation("join", metrics.ResultOK)
	m.RecordOperation("join", "already_member")

	body := scrape(t, m)
	if !strings.Contains(body, `brewcircles_operations_total{operation="join",result="ok"} 2`) {
		t.Errorf("expected ok counter of 2 in:\n%s", body)
	}
	if !strings.Contains(body, `brewcircles_operations_total{operation="join",result="already_member"} 1`) {
		t.Errorf("expected already_member counter of 1")
	}
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *metrics.Metrics
	m.RecordOperation("join", metrics.ResultOK)
	m.RecordRepair()
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/circles/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/circles/"+id, nil))
	}

	n, err := promtestutil.GatherAndCount(m.Registry(), "brewcircles_http_requests_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected a single route series, got %d", n)
	}
	body := scrape(t, m)
	if !strings.Contains(body, `route="/circles/{id}",status="404"} 3`) {
		t.Errorf("expected 3 requests on /circles/{id} in:\n%s", body)
	}
}

func TestRegisterStoreGauges_ReportsDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fixtures.CreateCircle(ctx, "alice", "Drifted")
	fixtures.AddBrew(ctx, c, "alice", "V60")
	if _, err := db.Collection("circles").UpdateOne(ctx, bson.M{"_id": c.ID}, bson.M{"$inc": bson.M{"member_count": 2}}); err != nil {
		t.Fatalf("corrupt counter: %v", err)
	}

	m := metrics.New()
	m.RegisterStoreGauges(db, 5*time.Second)

	body := scrape(t, m)
	for _, want := range []string{
		"brewcircles_circles 1",
		"brewcircles_circle_brews 1",
		"brewcircles_drifted_circles 1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status %d", rec.Code)
	}
	return rec.Body.String()
}
