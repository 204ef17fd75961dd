package tensor

import "math"

// Add adds src to dst element-wise.
func Add(dst, src []float64) {
	for i := range dst {
		dst[i] += src[i]
	}
}

// Sub subtracts src from dst element-wise.
func Sub(dst, src []float64) {
	for i := range dst {
		dst[i] -= src[i]
	}
}

// Scale multiplies dst by s element-wise.
func Scale(dst []float64, s float64) {
	for i := range dst {
		dst[i] *= s
	}
}

// Dot computes the dot product of a and b.
func Dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// RMS computes the root mean square of x. Zero for an empty slice.
func RMS(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

// Round rounds each element of dst to the nearest integer.
func Round(dst []float64) {
	for i := range dst {
		dst[i] = math.Round(dst[i])
	}
}
