package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r := New()
	r.ObserveConsensus("research")
	r.ObserveConsensus("research")
	r.ObserveConsensus("")
	r.ObserveSynonym("resolved")
	r.ObserveGroup(4)
	r.ObserveEvent("agree")

	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("research")); got != 2 {
		t.Fatalf("research evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.evaluations.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("unknown evaluations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.synonyms.WithLabelValues("resolved")); got != 1 {
		t.Fatalf("synonym resolutions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(r.groupSize); got != 1 {
		t.Fatalf("group histogram series = %d, want 1", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveConsensus("research")
	r.ObserveSynonym("resolved")
	r.ObserveGroup(1)
	r.ObserveEvent("agree")
	if r.Registry() != nil {
		t.Fatal("nil recorder should have no registry")
	}
	if err := r.WriteTextfile(filepath.Join(t.TempDir(), "x.prom")); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObserveConsensus("needs_id")
	path := filepath.Join(t.TempDir(), "taxonid.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	if !strings.Contains(string(data), `taxonid_consensus_evaluations_total{grade="needs_id"} 1`) {
		t.Fatalf("textfile missing counter:\n%s", data)
	}
}
