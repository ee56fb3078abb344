package check

import "sync"

// sampleRing is a fixed-size ring of failing run verdicts. Once full,
// new failures overwrite the oldest.
type sampleRing struct {
	mu   sync.Mutex
	buf  []Verdict
	pos  int
	full bool
}

// newSampleRing creates a ring with the given capacity. Capacity zero
// retains nothing.
func newSampleRing(size int) *sampleRing {
	return &sampleRing{buf: make([]Verdict, size)}
}

// Add stores a verdict, evicting the oldest when full.
func (sr *sampleRing) Add(v Verdict) {
	if len(sr.buf) == 0 {
		return
	}
	sr.mu.Lock()
	defer sr.mu.Unlock()

	sr.buf[sr.pos] = v
	sr.pos = (sr.pos + 1) % len(sr.buf)
	if sr.pos == 0 {
		sr.full = true
	}
}

// Samples returns the retained verdicts, oldest first.
func (sr *sampleRing) Samples() []Verdict {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	if !sr.full {
		return append([]Verdict(nil), sr.buf[:sr.pos]...)
	}
	out := make([]Verdict, 0, len(sr.buf))
	out = append(out, sr.buf[sr.pos:]...)
	out = append(out, sr.buf[:sr.pos]...)
	return out
}

// Len returns the number of verdicts stored.
func (sr *sampleRing) Len() int {
	sr.mu.Lock()
	defer sr.mu.Unlock()
	if sr.full {
		return len(sr.buf)
	}
	return sr.pos
}
