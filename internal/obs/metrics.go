package obs

import (
	"sort"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// OrNopMeter returns m, or NopMeter when m is nil.
func OrNopMeter(m Meter) Meter {
	if m == nil {
		return NopMeter{}
	}
	return m
}

// Tally is an in-memory Meter. Counters are summed per name and label set;
// histograms keep their observation count only.
type Tally struct {
	mu     sync.Mutex
	counts map[string]float64
}

func (t *Tally) Counter(name string, value float64, labels ...Label) {
	t.add(Key(name, labels...), value)
}

func (t *Tally) Histogram(name string, value float64, labels ...Label) {
	t.add(Key(name+"_count", labels...), 1)
}

// Get returns the accumulated value for a key built by Key.
func (t *Tally) Get(key string) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[key]
}

// Snapshot returns a copy of every accumulated value.
func (t *Tally) Snapshot() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

func (t *Tally) add(key string, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts == nil {
		t.counts = make(map[string]float64)
	}
	t.counts[key] += v
}

// Key renders name{k=v,...} with labels sorted by key.
func Key(name string, labels ...Label) string {
	if len(labels) == 0 {
		return name
	}
	ls := append([]Label(nil), labels...)
	sort.Slice(ls, func(i, j int) bool { return ls[i].Key < ls[j].Key })
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = l.Key + "=" + l.Value
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}
