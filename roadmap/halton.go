package roadmap

// PointSource produces points in [0,1)^D; the roadmap affinely scales each
// into configuration space bounds during densification. Substitutable so
// the deterministic Halton driver below can be swapped for another
// quasi-random source without touching Roadmap.
type PointSource interface {
	// Next returns the next point. The returned slice has length D and must
	// not be retained by the caller; Roadmap copies it immediately.
	Next() []float64
}

var firstPrimes = []int{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
}

func isPrime(n int) bool {
	if n < 2 {
		return false
	}
	for d := 2; d*d <= n; d++ {
		if n%d == 0 {
			return false
		}
	}
	return true
}

func bases(n int) []int {
	if n <= len(firstPrimes) {
		out := make([]int, n)
		copy(out, firstPrimes[:n])
		return out
	}
	out := append([]int{}, firstPrimes...)
	candidate := out[len(out)-1]
	for len(out) < n {
		candidate += 2
		if isPrime(candidate) {
			out = append(out, candidate)
		}
	}
	return out
}

// radicalInverse computes the base-b radical inverse of index, i.e. the
// digits of index in base b reversed across the radix point.
func radicalInverse(index uint64, base int) float64 {
	f := 1.0
	r := 0.0
	b := uint64(base)
	for i := index; i > 0; i /= b {
		f /= float64(base)
		r += f * float64(i%b)
	}
	return r
}

// HaltonSource is a deterministic Halton sequence: calling Next repeatedly
// from a fresh instance always produces the same sequence of points, which
// is what makes densification reproducible given the same batch sizes.
type HaltonSource struct {
	dim   int
	bases []int
	index uint64
}

// NewHaltonSource returns a Halton sequence generator producing points of
// dimension dim, starting from the first point of the sequence (index 1;
// index 0 is the degenerate all-zero point and is skipped).
func NewHaltonSource(dim int) *HaltonSource {
	return &HaltonSource{dim: dim, bases: bases(dim)}
}

// Next returns the next point in the sequence.
func (h *HaltonSource) Next() []float64 {
	h.index++
	out := make([]float64, h.dim)
	for i, b := range h.bases {
		out[i] = radicalInverse(h.index, b)
	}
	return out
}
