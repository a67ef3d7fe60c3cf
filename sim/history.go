package sim

// History is the ordered sequence of observations a run produced.
// Record 0 is the observation of the initial state, so a run of n
// steps yields n+1 records. Appends are internal to the container; the
// sequence is sealed once the run reaches a terminal phase.
type History[O any] struct {
	records []O
	sealed  bool
}

// Len returns the number of recorded observations.
func (h *History[O]) Len() int {
	return len(h.records)
}

// At returns the i-th observation. Panics when i is out of range, like
// a slice index.
func (h *History[O]) At(i int) O {
	return h.records[i]
}

// Last returns the most recent observation, or false when the history
// is empty.
func (h *History[O]) Last() (O, bool) {
	if len(h.records) == 0 {
		var zero O
		return zero, false
	}
	return h.records[len(h.records)-1], true
}

// Records returns a copy of the observation sequence. Mutating the
// returned slice does not affect the history.
func (h *History[O]) Records() []O {
	out := make([]O, len(h.records))
	copy(out, h.records)
	return out
}

// Sealed reports whether the run has reached a terminal phase and the
// history can no longer grow.
func (h *History[O]) Sealed() bool {
	return h.sealed
}

func (h *History[O]) append(o O) {
	if h.sealed {
		panic("sim: append to sealed history")
	}
	h.records = append(h.records, o)
}

func (h *History[O]) seal() {
	h.sealed = true
}
