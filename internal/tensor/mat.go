// Package tensor provides dense float64 matrices and the blocked,
// parallel products the principal-component codec is built on. Spectra
// arrive as batches of thousands of pixels, so the hot path is a tall
// matrix times a wide eigenvector matrix.
package tensor

import "math/rand"

// Mat is a dense row-major matrix. Stride is the number of elements
// between the starts of two consecutive rows; for freshly allocated
// matrices it equals C. No bounds checking beyond Go's slice checks:
// out-of-range indices panic.
type Mat struct {
	R, C   int
	Stride int
	Data   []float64
}

// NewMat allocates a zero-initialised matrix.
func NewMat(r, c int) Mat {
	if r < 0 || c < 0 {
		panic("negative dimension for matrix")
	}
	return Mat{R: r, C: c, Stride: c, Data: make([]float64, r*c)}
}

// NewMatFromData wraps existing data as a matrix. The data length must
// be exactly r*c.
func NewMatFromData(r, c int, data []float64) Mat {
	if r*c != len(data) {
		panic("data length mismatch")
	}
	return Mat{R: r, C: c, Stride: c, Data: data}
}

// Row returns a view of the i-th row. Modifications to the returned
// slice update the matrix.
func (m *Mat) Row(i int) []float64 {
	if i < 0 || i >= m.R {
		panic("row index out of range")
	}
	start := i * m.Stride
	return m.Data[start : start+m.C]
}

// T returns the transpose as a new matrix.
func (m *Mat) T() Mat {
	out := NewMat(m.C, m.R)
	for i := 0; i < m.R; i++ {
		row := m.Row(i)
		for j, v := range row {
			out.Data[j*out.Stride+i] = v
		}
	}
	return out
}

// FillRand fills the matrix with reproducible pseudo-random values in
// a small range around zero. The same seed produces the same matrix.
func FillRand(m *Mat, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	for i := range m.Data {
		m.Data[i] = (rng.Float64() - 0.5) * 0.02
	}
}
