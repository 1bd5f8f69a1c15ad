package stats

import "math"

// Summary accumulates running statistics over every sample ever added,
// using Welford's update so the variance stays stable over long runs.
type Summary struct {
	n    int
	mean float64
	m2   float64
	sum  float64
}

// Add records a sample.
func (s *Summary) Add(v float64) {
	s.n++
	s.sum += v
	delta := v - s.mean
	s.mean += delta / float64(s.n)
	s.m2 += delta * (v - s.mean)
}

// N returns the number of samples recorded.
func (s *Summary) N() int { return s.n }

// Sum returns the total of all samples.
func (s *Summary) Sum() float64 { return s.sum }

// Mean returns the mean, or 0 when no samples were recorded.
func (s *Summary) Mean() float64 { return s.mean }

// StdDev returns the sample standard deviation.
func (s *Summary) StdDev() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / float64(s.n-1))
}
