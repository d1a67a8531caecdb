package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegistered(t *testing.T) {
	m := New()
	m.FilesTotal.WithLabelValues(StatusOK).Add(2)
	m.FilesTotal.WithLabelValues(StatusFailed).Inc()
	m.TokensTotal.Add(10)
	m.TableKeys.Set(4)

	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(StatusOK)); got != 2 {
		t.Errorf("Expected 2 ok files, got %v", got)
	}
	if got := testutil.ToFloat64(m.FilesTotal.WithLabelValues(StatusFailed)); got != 1 {
		t.Errorf("Expected 1 failed file, got %v", got)
	}
	n, err := testutil.GatherAndCount(m.Registry())
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Error("Registry should expose metrics")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.WordsTotal.Add(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, "lexfreq_words_total 3") {
		t.Errorf("Expected words counter in output, got:\n%s", body)
	}
}

func TestIndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.TokensTotal.Inc()
	if testutil.ToFloat64(b.TokensTotal) != 0 {
		t.Error("Registries should not share collectors")
	}
}
