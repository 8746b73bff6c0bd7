//go:build !integration

package metrics_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"forum-telegram-relay/internal/infra/metrics"
)

// The help strings double as the label-set documentation, so every
// result value the relay emits must appear there.
func TestAnnouncementHelpListsEveryResult(t *testing.T) {
	metrics.MustRegister()
	results := []string{"sent", "skipped", "skipped_category", "skipped_reply", "failed"}
	for _, r := range results {
		metrics.IncAnnouncement(r)
	}

	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range mfs {
		if mf.GetName() != "relay_announcements_total" {
			continue
		}
		help := mf.GetHelp()
		for _, r := range results {
			if !strings.Contains(help, r) {
				t.Errorf("help text does not document result %q: %s", r, help)
			}
		}
		if got := len(mf.GetMetric()); got != len(results) {
			t.Errorf("expected %d label values, got %d", len(results), got)
		}
		return
	}
	t.Fatal("relay_announcements_total not registered")
}
