package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	callsGauges     []counterCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsGauges = append(f.callsGauges, counterCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

// install swaps in fb for the duration of the test.
func install(t *testing.T, fb *fakeBackend) {
	t.Helper()
	orig := current()
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(orig) })
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	RecordStep("empmaster", "parse", nil, 2*time.Second)
	RecordStep("empmaster", "load", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("counters=%d histograms=%d, want 2 each", len(fb.callsCounters), len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StepTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v", cc0)
	}
	if cc0.labels["step"] != "parse" || cc0.labels["status"] != "success" || cc0.labels["job"] != "empmaster" {
		t.Fatalf("counter[0].labels = %v", cc0.labels)
	}
	if got := fb.callsCounters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1].status = %q, want failure", got)
	}

	h1 := fb.callsHistograms[1]
	if h1.name != StepDurationSeconds || h1.value != 1.5 {
		t.Fatalf("histogram[1] = %#v", h1)
	}
}

func TestRecordRow(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	RecordRow("empmaster", "inserted", 10)
	RecordRow("empmaster", "skipped", 0)
	RecordRow("empmaster", "fallback", -1)

	if len(fb.callsCounters) != 1 {
		t.Fatalf("counter calls = %d, want 1", len(fb.callsCounters))
	}
	c := fb.callsCounters[0]
	if c.name != RecordsTotal || c.delta != 10 || c.labels["kind"] != "inserted" {
		t.Fatalf("counter = %#v", c)
	}
}

func TestRecordOffsetAndFlush(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	RecordOffset("empmaster", 42)
	if err := Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(fb.callsGauges) != 1 || fb.callsGauges[0].name != ResumeOffset || fb.callsGauges[0].delta != 42 {
		t.Fatalf("gauges = %#v", fb.callsGauges)
	}
	if fb.flushCount != 1 {
		t.Fatalf("flushCount = %d, want 1", fb.flushCount)
	}
}

func TestSetBackend_NilKeepsCurrent(t *testing.T) {
	fb := &fakeBackend{}
	install(t, fb)

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatalf("SetBackend(nil) replaced the backend")
	}
}
