// Package pcc reconstructs IASI spectra from principal-component
// scores and compresses spectra back to scores. The eigenvector basis
// is distributed separately from the products; the quantisation
// factors travel in the product GIADR.
package pcc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/samcharles93/epsio/internal/tensor"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
)

var (
	// ErrMissingBasis reports an absent or unreadable basis file.
	ErrMissingBasis = errors.New("pcc: missing eigenvector basis")

	// ErrShapeMismatch reports scores or spectra whose width does not
	// match the basis and GIADR dimensions.
	ErrShapeMismatch = errors.New("pcc: shape mismatch")

	// ErrRecordCountMismatch reports score and residual sets with a
	// different number of pixels.
	ErrRecordCountMismatch = errors.New("pcc: record count mismatch")
)

// basisMagic frames a serialised basis file.
var basisMagic = [4]byte{'E', 'P', 'S', 'B'}

const basisVersion = 1

// Band holds the eigendecomposition of one spectral band.
type Band struct {
	// Eigenvalues of the training covariance, largest first.
	Eigenvalues []float64

	// Eigenvectors has one component per row and one channel per
	// column.
	Eigenvectors tensor.Mat

	// Mean and Nedr cover this band's channels. Nedr is the noise
	// estimate the spectra are normalised by.
	Mean []float64
	Nedr []float64
}

// Basis is the full three-band eigenvector basis.
type Basis struct {
	Bands [l1c.SB]Band
}

// Channels is the total channel count across the bands.
func (b *Basis) Channels() int {
	n := 0
	for i := range b.Bands {
		n += len(b.Bands[i].Mean)
	}
	return n
}

// Mean concatenates the band means into one spectrum-length vector.
func (b *Basis) Mean() []float64 {
	out := make([]float64, 0, b.Channels())
	for i := range b.Bands {
		out = append(out, b.Bands[i].Mean...)
	}
	return out
}

// Nedr concatenates the band noise estimates.
func (b *Basis) Nedr() []float64 {
	out := make([]float64, 0, b.Channels())
	for i := range b.Bands {
		out = append(out, b.Bands[i].Nedr...)
	}
	return out
}

// Load reads a basis container from path.
func Load(path string) (*Basis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingBasis, err)
	}
	defer f.Close()
	b, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("basis %s: %w", path, err)
	}
	return b, nil
}

// Read decodes a basis container.
func Read(r io.Reader) (*Basis, error) {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("basis header: %w", err)
	}
	if magic != basisMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMissingBasis, magic[:])
	}
	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, fmt.Errorf("basis header: %w", err)
	}
	if version != basisVersion {
		return nil, fmt.Errorf("%w: unsupported basis version %d", ErrMissingBasis, version)
	}

	b := &Basis{}
	for i := range b.Bands {
		var ncomp, nchan uint32
		if err := binary.Read(r, binary.BigEndian, &ncomp); err != nil {
			return nil, fmt.Errorf("band %d header: %w", i+1, err)
		}
		if err := binary.Read(r, binary.BigEndian, &nchan); err != nil {
			return nil, fmt.Errorf("band %d header: %w", i+1, err)
		}
		band := Band{
			Eigenvalues:  make([]float64, ncomp),
			Eigenvectors: tensor.NewMat(int(ncomp), int(nchan)),
			Mean:         make([]float64, nchan),
			Nedr:         make([]float64, nchan),
		}
		for _, dst := range [][]float64{band.Eigenvalues, band.Eigenvectors.Data, band.Mean, band.Nedr} {
			if err := binary.Read(r, binary.BigEndian, dst); err != nil {
				return nil, fmt.Errorf("band %d data: %w", i+1, err)
			}
		}
		b.Bands[i] = band
	}
	return b, nil
}

// Write serialises the basis to path.
func (b *Basis) Write(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteTo serialises the basis container.
func (b *Basis) WriteTo(w io.Writer) error {
	if _, err := w.Write(basisMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint16(basisVersion)); err != nil {
		return err
	}
	for i := range b.Bands {
		band := &b.Bands[i]
		if err := binary.Write(w, binary.BigEndian, uint32(band.Eigenvectors.R)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(band.Eigenvectors.C)); err != nil {
			return err
		}
		for _, src := range [][]float64{band.Eigenvalues, band.Eigenvectors.Data, band.Mean, band.Nedr} {
			if err := binary.Write(w, binary.BigEndian, src); err != nil {
				return err
			}
		}
	}
	return nil
}
