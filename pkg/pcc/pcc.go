package pcc

import (
	"fmt"
	"math"

	"github.com/samcharles93/epsio/internal/tensor"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
	"github.com/samcharles93/epsio/pkg/eps/pc"
)

// Reconstructor combines an eigenvector basis with the quantisation
// parameters of one PC product. All batch operations take one row per
// sounder pixel.
type Reconstructor struct {
	basis *Basis
	giadr *pc.GIADR

	// Cached across calls: band transposes for compression and the
	// concatenated normalisation vectors.
	eigT [l1c.SB]tensor.Mat
	mean []float64
	nedr []float64
}

// New validates that the basis matches the product's quantisation
// parameters: per band, the score count must equal the component count
// and the band boundaries must line up.
func New(basis *Basis, giadr *pc.GIADR) (*Reconstructor, error) {
	choff := 0
	for b := range basis.Bands {
		band := &basis.Bands[b]
		if n := giadr.BandScores(b); band.Eigenvectors.R != n {
			return nil, fmt.Errorf("%w: band %d has %d components, product stores %d scores",
				ErrShapeMismatch, b+1, band.Eigenvectors.R, n)
		}
		if giadr.FirstChannel[b] != choff {
			return nil, fmt.Errorf("%w: band %d starts at channel %d, basis expects %d",
				ErrShapeMismatch, b+1, giadr.FirstChannel[b], choff)
		}
		if nc := band.Eigenvectors.C; giadr.NbrChannels[b] != nc {
			return nil, fmt.Errorf("%w: band %d covers %d channels, basis has %d",
				ErrShapeMismatch, b+1, giadr.NbrChannels[b], nc)
		}
		if giadr.ScoreQuantisation[b] <= 0 || giadr.ResidualQuantisation[b] <= 0 {
			return nil, fmt.Errorf("%w: band %d has non-positive quantisation factors", ErrShapeMismatch, b+1)
		}
		choff += band.Eigenvectors.C
	}

	r := &Reconstructor{basis: basis, giadr: giadr, mean: basis.Mean(), nedr: basis.Nedr()}
	for b := range basis.Bands {
		r.eigT[b] = basis.Bands[b].Eigenvectors.T()
	}
	return r, nil
}

// Channels is the width of a reconstructed spectrum.
func (r *Reconstructor) Channels() int { return len(r.mean) }

func (r *Reconstructor) checkRows(rows [][]float64, width int, what string) error {
	for _, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: %s row has %d values, want %d", ErrShapeMismatch, what, len(row), width)
		}
	}
	return nil
}

// toMat packs rows into a dense matrix.
func toMat(rows [][]float64, width int) tensor.Mat {
	m := tensor.NewMat(len(rows), width)
	for i, row := range rows {
		copy(m.Row(i), row)
	}
	return m
}

// bandView is the columns of m covering one band, sharing m's storage.
func bandView(m *tensor.Mat, choff, width int) tensor.Mat {
	return tensor.Mat{R: m.R, C: width, Stride: m.Stride, Data: m.Data[choff:]}
}

// Reconstruct rebuilds radiance spectra from quantised PC scores. Each
// input row concatenates the bands the way pc.File.Scores returns
// them; each output row is a spectrum in mW/(m2 sr cm-1).
func (r *Reconstructor) Reconstruct(scores [][]float64) ([][]float64, error) {
	if err := r.checkRows(scores, r.giadr.TotalScores(), "score"); err != nil {
		return nil, err
	}
	if len(scores) == 1 {
		row, err := r.ReconstructOne(scores[0])
		if err != nil {
			return nil, err
		}
		return [][]float64{row}, nil
	}
	n := len(scores)
	nchan := len(r.mean)
	flat := tensor.NewMat(n, nchan)

	soff, choff := 0, 0
	for b := range r.basis.Bands {
		band := &r.basis.Bands[b]
		nb := band.Eigenvectors.R
		w := band.Eigenvectors.C

		A := tensor.NewMat(n, nb)
		for i, row := range scores {
			copy(A.Row(i), row[soff:soff+nb])
		}
		C := bandView(&flat, choff, w)
		tensor.GemmPar(&C, &A, &band.Eigenvectors, r.giadr.ScoreQuantisation[b], 0, 0)

		soff += nb
		choff += w
	}

	out := make([][]float64, n)
	for i := range out {
		row := flat.Row(i)
		for ch := range row {
			row[ch] = (row[ch] + r.mean[ch]) * r.nedr[ch] * 1e5
		}
		out[i] = row
	}
	return out, nil
}

// ReconstructOne rebuilds a single spectrum from one pixel's scores.
// One pixel does not pay for the blocked matrix product, so each band
// is a plain matrix-vector product against the transposed basis.
func (r *Reconstructor) ReconstructOne(scores []float64) ([]float64, error) {
	if total := r.giadr.TotalScores(); len(scores) != total {
		return nil, fmt.Errorf("%w: score row has %d values, want %d", ErrShapeMismatch, len(scores), total)
	}
	out := make([]float64, len(r.mean))
	soff, choff := 0, 0
	for b := range r.basis.Bands {
		w := r.eigT[b].R
		nb := r.eigT[b].C
		tensor.MatVec(out[choff:choff+w], &r.eigT[b], scores[soff:soff+nb])
		sqf := r.giadr.ScoreQuantisation[b]
		for ch := choff; ch < choff+w; ch++ {
			out[ch] = (out[ch]*sqf + r.mean[ch]) * r.nedr[ch] * 1e5
		}
		soff += nb
		choff += w
	}
	return out, nil
}

// ReconstructWithResidual rebuilds spectra from a scores product and
// the matching residual product, removing the quantisation error of
// the scores.
func (r *Reconstructor) ReconstructWithResidual(scores, residual [][]float64) ([][]float64, error) {
	if len(scores) != len(residual) {
		return nil, fmt.Errorf("%w: %d score rows, %d residual rows", ErrRecordCountMismatch, len(scores), len(residual))
	}
	if err := r.checkRows(residual, len(r.mean), "residual"); err != nil {
		return nil, err
	}
	out, err := r.Reconstruct(scores)
	if err != nil {
		return nil, err
	}
	for i, row := range out {
		res := residual[i]
		choff := 0
		for b := range r.basis.Bands {
			w := r.basis.Bands[b].Eigenvectors.C
			rqf := r.giadr.ResidualQuantisation[b]
			for ch := choff; ch < choff+w; ch++ {
				row[ch] -= rqf * res[ch] * r.nedr[ch] * 1e5
			}
			choff += w
		}
	}
	return out, nil
}

// normalise converts spectra to the unit the basis lives in and
// removes the mean.
func (r *Reconstructor) normalise(spectra [][]float64) tensor.Mat {
	m := tensor.NewMat(len(spectra), len(r.mean))
	for i, row := range spectra {
		dst := m.Row(i)
		for ch := range dst {
			dst[ch] = row[ch]*1e-5/r.nedr[ch] - r.mean[ch]
		}
	}
	return m
}

// Compress projects radiance spectra onto the basis and quantises the
// scores, producing rows shaped like pc.File.Scores.
func (r *Reconstructor) Compress(spectra [][]float64) ([][]float64, error) {
	if err := r.checkRows(spectra, len(r.mean), "spectrum"); err != nil {
		return nil, err
	}
	if len(spectra) == 1 {
		row, err := r.CompressOne(spectra[0])
		if err != nil {
			return nil, err
		}
		return [][]float64{row}, nil
	}
	n := len(spectra)
	tmp := r.normalise(spectra)

	total := r.giadr.TotalScores()
	flat := tensor.NewMat(n, total)

	soff, choff := 0, 0
	for b := range r.basis.Bands {
		w := r.eigT[b].R
		nb := r.eigT[b].C

		A := bandView(&tmp, choff, w)
		C := bandView(&flat, soff, nb)
		tensor.GemmPar(&C, &A, &r.eigT[b], 1/r.giadr.ScoreQuantisation[b], 0, 0)

		soff += nb
		choff += w
	}
	tensor.Round(flat.Data)

	out := make([][]float64, n)
	for i := range out {
		out[i] = flat.Row(i)
	}
	return out, nil
}

// CompressOne projects a single spectrum onto the basis and quantises
// the scores.
func (r *Reconstructor) CompressOne(spectrum []float64) ([]float64, error) {
	if len(spectrum) != len(r.mean) {
		return nil, fmt.Errorf("%w: spectrum row has %d values, want %d", ErrShapeMismatch, len(spectrum), len(r.mean))
	}
	norm := make([]float64, len(r.mean))
	for ch := range norm {
		norm[ch] = spectrum[ch]*1e-5/r.nedr[ch] - r.mean[ch]
	}
	out := make([]float64, r.giadr.TotalScores())
	soff, choff := 0, 0
	for b := range r.basis.Bands {
		w := r.eigT[b].R
		nb := r.eigT[b].C
		tensor.VecMat(out[soff:soff+nb], norm[choff:choff+w], &r.eigT[b])
		inv := 1 / r.giadr.ScoreQuantisation[b]
		for s := soff; s < soff+nb; s++ {
			out[s] = math.Round(out[s] * inv)
		}
		soff += nb
		choff += w
	}
	return out, nil
}

// Residual computes the normalised reconstruction error of quantised
// scores against the original spectra: reconstruction minus original,
// in noise-normalised units.
func (r *Reconstructor) Residual(spectra, scores [][]float64) ([][]float64, error) {
	if len(spectra) != len(scores) {
		return nil, fmt.Errorf("%w: %d spectrum rows, %d score rows", ErrRecordCountMismatch, len(spectra), len(scores))
	}
	if err := r.checkRows(spectra, len(r.mean), "spectrum"); err != nil {
		return nil, err
	}
	recon, err := r.Reconstruct(scores)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(spectra))
	for i, rec := range recon {
		row := make([]float64, len(rec))
		for ch := range row {
			row[ch] = rec[ch]*1e-5/r.nedr[ch] - spectra[i][ch]*1e-5/r.nedr[ch]
		}
		out[i] = row
	}
	return out, nil
}

// QuantiseResidual encodes a normalised residual with the per-band
// quantisation factors, producing rows shaped like pc.File.Residual.
func (r *Reconstructor) QuantiseResidual(residual [][]float64) ([][]float64, error) {
	if err := r.checkRows(residual, len(r.mean), "residual"); err != nil {
		return nil, err
	}
	out := make([][]float64, len(residual))
	for i, res := range residual {
		row := make([]float64, len(res))
		choff := 0
		for b := range r.basis.Bands {
			w := r.basis.Bands[b].Eigenvectors.C
			rqf := r.giadr.ResidualQuantisation[b]
			for ch := choff; ch < choff+w; ch++ {
				row[ch] = math.Round(res[ch] / rqf)
			}
			choff += w
		}
		out[i] = row
	}
	return out, nil
}

// RMS computes the per-band root mean square of a normalised residual,
// rounded to three decimals the way the ground segment stores it.
func (r *Reconstructor) RMS(residual [][]float64) ([][]float64, error) {
	if err := r.checkRows(residual, len(r.mean), "residual"); err != nil {
		return nil, err
	}
	out := make([][]float64, len(residual))
	for i, res := range residual {
		row := make([]float64, len(r.basis.Bands))
		choff := 0
		for b := range r.basis.Bands {
			w := r.basis.Bands[b].Eigenvectors.C
			row[b] = math.Round(tensor.RMS(res[choff:choff+w])*1e3) / 1e3
			choff += w
		}
		out[i] = row
	}
	return out, nil
}
