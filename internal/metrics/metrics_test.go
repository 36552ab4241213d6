package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/goliatone/go-cms-locales/internal/commands"
	"github.com/goliatone/go-cms-locales/internal/forms"
	"github.com/goliatone/go-cms-locales/internal/metrics"
	"github.com/goliatone/go-cms-locales/internal/mutation"
	"github.com/goliatone/go-cms-locales/internal/resolver"
)

var (
	_ resolver.Observer        = (*metrics.Recorder)(nil)
	_ mutation.Observer        = (*metrics.Recorder)(nil)
	_ forms.SubmissionObserver = (*metrics.Recorder)(nil)
	_ commands.Observer        = (*metrics.Recorder)(nil)
)

func TestRecorderCountsOutcomes(t *testing.T) {
	rec := metrics.New()
	rec.ObserveResolution("events", resolver.OutcomeFallback)
	rec.ObserveResolution("events", resolver.OutcomeFallback)
	rec.ObserveDeletion("events", mutation.MethodQuery, string(mutation.DeletionVerified))

	count, err := testutil.GatherAndCount(rec.Registry(), "cms_resolver_resolutions_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one resolution series, got %d", count)
	}

	expected := `
# HELP cms_mutation_deletions_total Document deletions by collection, method and status
# TYPE cms_mutation_deletions_total counter
cms_mutation_deletions_total{collection="events",method="query-api",status="verified"} 1
`
	if err := testutil.GatherAndCompare(rec.Registry(), strings.NewReader(expected), "cms_mutation_deletions_total"); err != nil {
		t.Fatalf("unexpected deletion metrics: %v", err)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	rec := metrics.New()
	rec.ObserveSubmission("admission", "accepted")

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET metrics: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `cms_forms_submissions_total{form="admission",outcome="accepted"} 1`) {
		t.Fatalf("expected submission counter in output, got:\n%s", body)
	}
}

func TestRecorderCountsCommands(t *testing.T) {
	rec := metrics.New()
	rec.ObserveCommand("seed.apply", "success")
	rec.ObserveCommand("seed.apply", "failed")

	count, err := testutil.GatherAndCount(rec.Registry(), "cms_commands_executions_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected two command series, got %d", count)
	}
}
