// Package randtest provides a scripted rules.Rand for pinning probabilistic
// outcomes in tests.
package randtest

// Sequence replays queued values. Once a queue is drained it keeps returning
// the corresponding fallback.
type Sequence struct {
	Floats []float64
	Ints   []int

	FloatFallback float64
	IntFallback   int

	FloatCalls int
	IntCalls   int
}

// Floats returns a Sequence that yields the given floats, then 0.
func Floats(values ...float64) *Sequence {
	return &Sequence{Floats: values}
}

// Float64 implements rules.Rand.
func (s *Sequence) Float64() float64 {
	s.FloatCalls++
	if len(s.Floats) == 0 {
		return s.FloatFallback
	}
	v := s.Floats[0]
	s.Floats = s.Floats[1:]
	return v
}

// IntN implements rules.Rand. Queued values are reduced modulo n.
func (s *Sequence) IntN(n int) int {
	s.IntCalls++
	v := s.IntFallback
	if len(s.Ints) > 0 {
		v = s.Ints[0]
		s.Ints = s.Ints[1:]
	}
	if n <= 0 {
		return 0
	}
	return ((v % n) + n) % n
}

// PushFloats appends floats to the queue.
func (s *Sequence) PushFloats(values ...float64) *Sequence {
	s.Floats = append(s.Floats, values...)
	return s
}

// PushInts appends ints to the queue.
func (s *Sequence) PushInts(values ...int) *Sequence {
	s.Ints = append(s.Ints, values...)
	return s
}
