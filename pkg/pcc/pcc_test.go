package pcc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/epsio/internal/tensor"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
	"github.com/samcharles93/epsio/pkg/eps/pc"
)

// testBasis builds a small basis with orthonormal component rows so
// projection and reconstruction invert each other exactly.
func testBasis() *Basis {
	b := &Basis{}
	b.Bands[0] = Band{
		Eigenvalues: []float64{4, 2},
		Eigenvectors: tensor.NewMatFromData(2, 4, []float64{
			1, 0, 0, 0,
			0, 1, 0, 0,
		}),
		Mean: []float64{0.1, 0.2, 0.3, 0.4},
		Nedr: []float64{1e-5, 1e-5, 1e-5, 1e-5},
	}
	b.Bands[1] = Band{
		Eigenvalues: []float64{3, 1},
		Eigenvectors: tensor.NewMatFromData(2, 3, []float64{
			1, 0, 0,
			0, 1, 0,
		}),
		Mean: []float64{0.5, 0.6, 0.7},
		Nedr: []float64{1e-5, 1e-5, 1e-5},
	}
	b.Bands[2] = Band{
		Eigenvalues: []float64{2},
		Eigenvectors: tensor.NewMatFromData(1, 3, []float64{
			0, 0, 1,
		}),
		Mean: []float64{0.8, 0.9, 1.0},
		Nedr: []float64{1e-5, 1e-5, 1e-5},
	}
	return b
}

func testGIADR() *pc.GIADR {
	return &pc.GIADR{
		ScoreCounts:          [l1c.SB][3]int{{2, 0, 0}, {1, 1, 0}, {1, 0, 0}},
		FirstChannel:         [l1c.SB]int{0, 4, 7},
		NbrChannels:          [l1c.SB]int{4, 3, 3},
		ScoreQuantisation:    [l1c.SB]float64{0.5, 1, 2},
		ResidualQuantisation: [l1c.SB]float64{1, 1, 1},
	}
}

func TestBasisRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "basis.epsb")
	require.NoError(t, testBasis().Write(path))

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, testBasis(), got)
	require.Equal(t, 10, got.Channels())
}

func TestLoadMissingBasis(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.epsb"))
	require.ErrorIs(t, err, ErrMissingBasis)
}

func TestNewValidatesShapes(t *testing.T) {
	t.Parallel()

	g := testGIADR()
	g.ScoreCounts[0][0] = 3 // basis band 1 has two components
	_, err := New(testBasis(), g)
	require.ErrorIs(t, err, ErrShapeMismatch)

	g = testGIADR()
	g.FirstChannel[1] = 5
	_, err = New(testBasis(), g)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestReconstructCompressRoundTrip(t *testing.T) {
	t.Parallel()

	r, err := New(testBasis(), testGIADR())
	require.NoError(t, err)

	scores := [][]float64{
		{2, -4, 6, 8, -10},
		{0, 1, -1, 3, 5},
	}
	spectra, err := r.Reconstruct(scores)
	require.NoError(t, err)
	require.Len(t, spectra, 2)
	require.Len(t, spectra[0], 10)
	// Channel 0 carries mean 0.1 plus the first band-1 component
	// scaled by its quantisation factor 0.5.
	require.InDelta(t, 0.5*2+0.1, spectra[0][0], 1e-9)
	// Channel 9 carries mean 1.0 plus the band-3 score scaled by 2.
	require.InDelta(t, 2*-10+1.0, spectra[0][9], 1e-9)

	back, err := r.Compress(spectra)
	require.NoError(t, err)
	for i := range scores {
		for j := range scores[i] {
			require.InDelta(t, scores[i][j], back[i][j], 1e-9, "row %d score %d", i, j)
		}
	}
}

func TestSinglePixelMatchesBatch(t *testing.T) {
	t.Parallel()

	r, err := New(testBasis(), testGIADR())
	require.NoError(t, err)

	scores := [][]float64{
		{2, -4, 6, 8, -10},
		{0, 1, -1, 3, 5},
	}
	batch, err := r.Reconstruct(scores)
	require.NoError(t, err)

	for i, row := range scores {
		one, err := r.ReconstructOne(row)
		require.NoError(t, err)
		require.Len(t, one, 10)
		for ch := range one {
			require.InDelta(t, batch[i][ch], one[ch], 1e-12, "row %d channel %d", i, ch)
		}
	}

	compressed, err := r.Compress(batch)
	require.NoError(t, err)
	for i, spectrum := range batch {
		one, err := r.CompressOne(spectrum)
		require.NoError(t, err)
		require.Equal(t, compressed[i], one, "row %d", i)
	}

	_, err = r.ReconstructOne([]float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = r.CompressOne([]float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestLosslessWithResidual(t *testing.T) {
	t.Parallel()

	r, err := New(testBasis(), testGIADR())
	require.NoError(t, err)

	// Spectra that do not sit exactly on the quantised score grid.
	base, err := r.Reconstruct([][]float64{{2, -4, 6, 8, -10}})
	require.NoError(t, err)
	for ch := range base[0] {
		base[0][ch] += 0.17 * float64(ch%3)
	}

	scores, err := r.Compress(base)
	require.NoError(t, err)
	residual, err := r.Residual(base, scores)
	require.NoError(t, err)
	quantised, err := r.QuantiseResidual(residual)
	require.NoError(t, err)

	lossless, err := r.ReconstructWithResidual(scores, quantised)
	require.NoError(t, err)
	// The remaining error is bounded by half a residual quantisation
	// step per channel.
	for ch := range base[0] {
		require.InDelta(t, base[0][ch], lossless[0][ch], 0.5+1e-9)
	}

	rms, err := r.RMS(residual)
	require.NoError(t, err)
	require.Len(t, rms[0], l1c.SB)
}

func TestShapeAndCountErrors(t *testing.T) {
	t.Parallel()

	r, err := New(testBasis(), testGIADR())
	require.NoError(t, err)

	_, err = r.Reconstruct([][]float64{{1, 2, 3}})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = r.ReconstructWithResidual(
		[][]float64{{2, -4, 6, 8, -10}},
		[][]float64{},
	)
	require.ErrorIs(t, err, ErrRecordCountMismatch)

	_, err = r.Residual([][]float64{make([]float64, 10)}, nil)
	require.ErrorIs(t, err, ErrRecordCountMismatch)
}

func TestRMSConstantResidual(t *testing.T) {
	t.Parallel()

	r, err := New(testBasis(), testGIADR())
	require.NoError(t, err)

	res := [][]float64{make([]float64, 10)}
	for ch := range res[0] {
		res[0][ch] = 3
	}
	rms, err := r.RMS(res)
	require.NoError(t, err)
	for b := range l1c.SB {
		require.InDelta(t, 3.0, rms[0][b], 1e-9)
	}
}
