package eps_test

import (
	"errors"
	"testing"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/epstest"
)

func testRegistry() *eps.Registry {
	reg := eps.NewRegistry(eps.ProductL1C)
	reg.Register(eps.ClassMDR, eps.AnySubclass, 4, func(dims eps.Dims) ([]eps.FieldSpec, error) {
		return []eps.FieldSpec{
			eps.Field("COUNT", eps.TypeU1),
			eps.Field("SAMPLES", eps.TypeU2, eps.FromField("COUNT")),
		}, nil
	})
	return reg
}

func mdrPayload(samples ...uint16) []byte {
	p := epstest.NewPayload().U8(uint8(len(samples)))
	for _, s := range samples {
		p.U16(s)
	}
	return p.Bytes()
}

func TestOpenBuildsPointerIndex(t *testing.T) {
	t.Parallel()

	// Non-uniform record sizes: the index must come from each GRH, not
	// from an assumed stride.
	b := epstest.NewBuilder("SND").
		WithIPR().
		AddMDR(2, 4, mdrPayload(1, 2, 3)).
		AddMDR(2, 4, mdrPayload(9)).
		AddMDR(2, 4, mdrPayload(4, 5, 6, 7, 8))
	path := epstest.WriteFile(t, b, "index.nat")

	f, err := eps.Open(path, testRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if f.MPHR() == nil || f.MPHR().ProductType != "SND" {
		t.Fatalf("mphr not decoded: %+v", f.MPHR())
	}
	if f.MDRCount() != 3 {
		t.Fatalf("mdr count: got %d", f.MDRCount())
	}

	p1, err := f.Pointer(1)
	if err != nil {
		t.Fatalf("pointer: %v", err)
	}
	if p1.Length != int64(eps.GRHSize+len(mdrPayload(9))) {
		t.Fatalf("pointer length: got %d", p1.Length)
	}

	rec, err := f.DecodeMDRAt(2)
	if err != nil {
		t.Fatalf("decode mdr 2: %v", err)
	}
	samples, err := rec.Ints("SAMPLES")
	if err != nil {
		t.Fatalf("samples: %v", err)
	}
	if len(samples) != 5 || samples[4] != 8 {
		t.Fatalf("mdr 2 samples: got %v", samples)
	}

	if _, err := f.Pointer(3); !errors.Is(err, eps.ErrIndexOutOfRange) {
		t.Fatalf("want ErrIndexOutOfRange, got %v", err)
	}
}

func TestOpenRejectsMDRCountMismatch(t *testing.T) {
	t.Parallel()

	b := epstest.NewBuilder("SND").
		SetMPHR("TOTAL_MDR", "5").
		AddMDR(2, 4, mdrPayload(1))
	path := epstest.WriteFile(t, b, "mismatch.nat")

	_, err := eps.Open(path, testRegistry())
	if !errors.Is(err, eps.ErrIndexCorrupt) {
		t.Fatalf("want ErrIndexCorrupt, got %v", err)
	}
}

func TestOpenRejectsBadIPRTarget(t *testing.T) {
	t.Parallel()

	// Hand-build a file whose IPR points inside the MPHR.
	mphr := epstest.NewBuilder("SND").SetMPHR("TOTAL_MDR", "1")
	good := mphr.WithIPR().AddMDR(2, 4, mdrPayload(1)).Build()

	// Corrupt the IPR target offset (last 4 bytes of the IPR payload,
	// which sits just before the single MDR).
	var data []byte
	data = append(data, good...)
	iprEnd := len(data) - (eps.GRHSize + len(mdrPayload(1)))
	data[iprEnd-1] = 0
	data[iprEnd-2] = 0
	data[iprEnd-3] = 0
	data[iprEnd-4] = 0

	path := epstest.WriteBytes(t, data, "bad-ipr.nat")
	_, err := eps.Open(path, testRegistry())
	if !errors.Is(err, eps.ErrIndexCorrupt) {
		t.Fatalf("want ErrIndexCorrupt, got %v", err)
	}
}

func TestOpenTruncatedFinalMDR(t *testing.T) {
	t.Parallel()

	full := epstest.NewBuilder("SND").
		AddMDR(2, 4, mdrPayload(1, 2)).
		AddMDR(2, 4, mdrPayload(3, 4)).
		Build()
	// Drop the last 2 bytes of the final record, clipping sample 1 but
	// leaving sample 0 intact.
	path := epstest.WriteBytes(t, full[:len(full)-2], "truncated.nat")

	f, err := eps.Open(path, testRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	if f.MDRCount() != 2 {
		t.Fatalf("truncated final record must stay indexed, count=%d", f.MDRCount())
	}
	rec, err := f.DecodeMDRAt(1)
	if err != nil {
		t.Fatalf("decode truncated: %v", err)
	}
	if !rec.Truncated {
		t.Fatalf("record should be flagged truncated")
	}
	samples, _ := rec.Ints("SAMPLES")
	if samples[0] != 3 {
		t.Fatalf("intact prefix damaged: %v", samples)
	}
	if samples[1] != 0 {
		t.Fatalf("missing tail must be zero-filled: %v", samples)
	}

	// The first record is untouched.
	rec0, err := f.DecodeMDRAt(0)
	if err != nil {
		t.Fatalf("decode intact: %v", err)
	}
	if rec0.Truncated {
		t.Fatalf("intact record flagged truncated")
	}
}

func TestDecodeMDRsSelectionOrder(t *testing.T) {
	t.Parallel()

	b := epstest.NewBuilder("SND")
	for i := range 6 {
		b.AddMDR(2, 4, mdrPayload(uint16(100+i)))
	}
	path := epstest.WriteFile(t, b, "order.nat")

	f, err := eps.Open(path, testRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := f.DecodeMDRs(eps.RangeStep(4, eps.End, -2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []int64{104, 102, 100}
	if len(recs) != len(want) {
		t.Fatalf("got %d records", len(recs))
	}
	for i, rec := range recs {
		samples, _ := rec.Ints("SAMPLES")
		if samples[0] != want[i] {
			t.Fatalf("record %d: got %d want %d", i, samples[0], want[i])
		}
	}
}

func TestDecodeMDRsSkipsUnknownVersion(t *testing.T) {
	t.Parallel()

	b := epstest.NewBuilder("SND").
		AddMDR(2, 4, mdrPayload(1)).
		AddMDR(2, 9, mdrPayload(2)). // no registered layout
		AddMDR(2, 4, mdrPayload(3))
	path := epstest.WriteFile(t, b, "skip.nat")

	f, err := eps.Open(path, testRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = f.Close() }()

	recs, err := f.DecodeMDRs(eps.All())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if recs[0] == nil || recs[2] == nil {
		t.Fatalf("known-version records must decode")
	}
	if recs[1] != nil {
		t.Fatalf("unknown-version record must be nil, got %+v", recs[1])
	}
}

func TestCloseIsIdempotentAndFencesAccess(t *testing.T) {
	t.Parallel()

	b := epstest.NewBuilder("SND").AddMDR(2, 4, mdrPayload(1))
	path := epstest.WriteFile(t, b, "close.nat")

	f, err := eps.Open(path, testRegistry())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if _, err := f.RawMDR(0); !errors.Is(err, eps.ErrFileClosed) {
		t.Fatalf("want ErrFileClosed, got %v", err)
	}
	if _, err := f.DecodeMDRs(eps.All()); !errors.Is(err, eps.ErrFileClosed) {
		t.Fatalf("want ErrFileClosed, got %v", err)
	}
}
