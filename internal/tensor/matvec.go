package tensor

import (
	"runtime"
	"sync"
)

type matVecTask struct {
	dst    []float64
	w      *Mat
	x      []float64
	rs, re int
	done   chan struct{}
}

type matVecPool struct {
	size      int
	tasks     chan matVecTask
	doneSlots chan chan struct{}
}

var (
	matVecWorkPool *matVecPool
	matVecPoolOnce sync.Once
)

func getMatVecPool() *matVecPool {
	matVecPoolOnce.Do(func() {
		matVecWorkPool = newMatVecPool()
	})
	return matVecWorkPool
}

func newMatVecPool() *matVecPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &matVecPool{
		size:      size,
		tasks:     make(chan matVecTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.doneSlots <- make(chan struct{}, 1)
	}
	for i := 0; i < size; i++ {
		go func() {
			for task := range p.tasks {
				matVecRange(task.dst, task.w, task.x, task.rs, task.re)
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

// MatVec computes dst = w * x. dst must have length w.R and x length
// w.C. Rows are split across the worker pool when the matrix is tall
// enough to pay for the handoff.
func MatVec(dst []float64, w *Mat, x []float64) {
	if len(dst) != w.R || len(x) != w.C {
		panic("matvec: dimension mismatch")
	}
	pool := getMatVecPool()
	workers := pool.size
	if workers > w.R {
		workers = w.R
	}
	if workers <= 1 || w.R < 64 {
		matVecRange(dst, w, x, 0, w.R)
		return
	}

	chunk := (w.R + workers - 1) / workers
	done := <-pool.doneSlots
	for i := 0; i < workers; i++ {
		rs := i * chunk
		re := min(rs+chunk, w.R)
		pool.tasks <- matVecTask{dst: dst, w: w, x: x, rs: rs, re: re, done: done}
	}
	for i := 0; i < workers; i++ {
		<-done
	}
	pool.doneSlots <- done
}

func matVecRange(dst []float64, w *Mat, x []float64, rs, re int) {
	for i := rs; i < re; i++ {
		row := w.Data[i*w.Stride : i*w.Stride+w.C]
		var sum float64
		j := 0
		for ; j+3 < len(row); j += 4 {
			sum += row[j+0]*x[j+0] +
				row[j+1]*x[j+1] +
				row[j+2]*x[j+2] +
				row[j+3]*x[j+3]
		}
		for ; j < len(row); j++ {
			sum += row[j] * x[j]
		}
		dst[i] = sum
	}
}

// VecMat computes dst = x * w, treating x as a row vector. dst must
// have length w.C and x length w.R.
func VecMat(dst []float64, x []float64, w *Mat) {
	if len(dst) != w.C || len(x) != w.R {
		panic("vecmat: dimension mismatch")
	}
	clear(dst)
	for i, xi := range x {
		if xi == 0 {
			continue
		}
		row := w.Data[i*w.Stride : i*w.Stride+w.C]
		for j, v := range row {
			dst[j] += xi * v
		}
	}
}
