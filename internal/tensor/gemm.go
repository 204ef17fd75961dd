package tensor

import "runtime"

// Tile sizes for the blocked product. Sized so one C tile and the
// matching A and B panels stay cache resident.
const (
	tileM = 32
	tileN = 64
	tileK = 32
)

type gemmTask struct {
	C, A, B     *Mat
	alpha, beta float64
	rs, re      int
	done        chan struct{}
}

type gemmPool struct {
	size      int
	tasks     chan gemmTask
	doneSlots chan chan struct{}
}

func newGemmPool() *gemmPool {
	size := runtime.GOMAXPROCS(0)
	if size < 1 {
		size = 1
	}
	p := &gemmPool{
		size:      size,
		tasks:     make(chan gemmTask, size*2),
		doneSlots: make(chan chan struct{}, size),
	}
	for i := 0; i < size; i++ {
		p.doneSlots <- make(chan struct{}, 1)
	}
	for w := 0; w < size; w++ {
		go func() {
			for task := range p.tasks {
				gemmRangeRows(task.C, task.A, task.B, task.alpha, task.beta, task.rs, task.re)
				task.done <- struct{}{}
			}
		}()
	}
	return p
}

var gemmWorkPool = newGemmPool()

// GemmPar computes C = alpha*A*B + beta*C with a blocked algorithm,
// parallelising across ranges of output rows. workers <= 0 uses one
// worker per CPU.
func GemmPar(C, A, B *Mat, alpha, beta float64, workers int) {
	if A.C != B.R || C.R != A.R || C.C != B.C {
		panic("gemm: dimension mismatch")
	}
	if C.R == 0 || C.C == 0 {
		return
	}

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > C.R {
		workers = C.R
	}
	if workers > gemmWorkPool.size {
		workers = gemmWorkPool.size
	}
	if workers <= 1 {
		gemmRangeRows(C, A, B, alpha, beta, 0, C.R)
		return
	}

	chunk := (C.R + workers - 1) / workers

	done := <-gemmWorkPool.doneSlots
	for w := 0; w < workers; w++ {
		rs := w * chunk
		re := min(rs+chunk, C.R)
		gemmWorkPool.tasks <- gemmTask{
			C: C, A: A, B: B,
			alpha: alpha, beta: beta,
			rs: rs, re: re,
			done: done,
		}
	}
	for i := 0; i < workers; i++ {
		<-done
	}
	gemmWorkPool.doneSlots <- done
}

// gemmRangeRows performs a blocked GEMM on a contiguous range of rows
// of C.
func gemmRangeRows(C, A, B *Mat, alpha, beta float64, rs, re int) {
	cStride := C.Stride
	n := C.C
	if beta == 0 {
		for i := rs; i < re; i++ {
			base := i * cStride
			clear(C.Data[base : base+n])
		}
	} else if beta != 1 {
		for i := rs; i < re; i++ {
			base := i * cStride
			for j := 0; j < n; j++ {
				C.Data[base+j] *= beta
			}
		}
	}

	k := A.C
	for i0 := rs; i0 < re; i0 += tileM {
		iMax := min(i0+tileM, re)
		for k0 := 0; k0 < k; k0 += tileK {
			kMax := min(k0+tileK, k)
			for j0 := 0; j0 < n; j0 += tileN {
				jMax := min(j0+tileN, n)
				blockUpdate(C.Data, A.Data, B.Data, cStride, A.Stride, B.Stride, alpha, i0, iMax, j0, jMax, k0, kMax)
			}
		}
	}
}

func blockUpdate(cData, aData, bData []float64, cStride, aStride, bStride int, alpha float64, i0, iMax, j0, jMax, k0, kMax int) {
	width := jMax - j0
	for i := i0; i < iMax; i++ {
		aRow := aData[i*aStride:]
		cOff := i*cStride + j0
		cRow := cData[cOff : cOff+width]

		for kk := k0; kk < kMax; kk++ {
			aik := aRow[kk] * alpha
			bOff := kk*bStride + j0
			bRow := bData[bOff : bOff+width]

			j := 0
			for ; j+3 < width; j += 4 {
				cRow[j+0] += aik * bRow[j+0]
				cRow[j+1] += aik * bRow[j+1]
				cRow[j+2] += aik * bRow[j+2]
				cRow[j+3] += aik * bRow[j+3]
			}
			for ; j < width; j++ {
				cRow[j] += aik * bRow[j]
			}
		}
	}
}
