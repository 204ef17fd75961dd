package tensor

import (
	"math"
	"testing"
)

func TestMatVecMatchesNaive(t *testing.T) {
	w := NewMat(130, 40)
	FillRand(&w, 11)
	x := make([]float64, 40)
	for i := range x {
		x[i] = float64(i) * 0.1
	}

	want := make([]float64, w.R)
	for i := 0; i < w.R; i++ {
		want[i] = Dot(w.Row(i), x)
	}

	got := make([]float64, w.R)
	MatVec(got, &w, x)

	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("row %d: got %g want %g", i, got[i], want[i])
		}
	}
}

func TestVecMat(t *testing.T) {
	w := NewMatFromData(2, 3, []float64{1, 2, 3, 4, 5, 6})
	x := []float64{2, -1}

	got := make([]float64, 3)
	VecMat(got, x, &w)

	want := []float64{-2, -1, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestOps(t *testing.T) {
	a := []float64{3, 4}
	if got := RMS(a); math.Abs(got-math.Sqrt(12.5)) > 1e-12 {
		t.Fatalf("RMS = %g", got)
	}
	if got := RMS(nil); got != 0 {
		t.Fatalf("RMS(nil) = %g", got)
	}

	b := []float64{1, 1}
	Add(a, b)
	if a[0] != 4 || a[1] != 5 {
		t.Fatalf("Add = %v", a)
	}
	Sub(a, b)
	Scale(a, 2)
	if a[0] != 6 || a[1] != 8 {
		t.Fatalf("Scale = %v", a)
	}

	r := []float64{1.4, -1.6}
	Round(r)
	if r[0] != 1 || r[1] != -2 {
		t.Fatalf("Round = %v", r)
	}
}
