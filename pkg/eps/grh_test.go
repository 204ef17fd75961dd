package eps

import (
	"errors"
	"testing"
	"time"
)

func TestParseGRHRoundTrip(t *testing.T) {
	t.Parallel()

	in := GRH{
		Class:           ClassMDR,
		InstrumentGroup: 10,
		Subclass:        2,
		SubclassVersion: 4,
		RecordSize:      2727768,
		StartDay:        7300,
		StartMsec:       43_200_000,
		StopDay:         7300,
		StopMsec:        43_208_000,
	}
	got, err := ParseGRH(in.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, in)
	}
}

func TestParseGRHShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := ParseGRH(make([]byte, GRHSize-1))
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("want ErrMalformedHeader, got %v", err)
	}
}

func TestParseGRHSizeBelowHeader(t *testing.T) {
	t.Parallel()

	g := GRH{Class: ClassMPHR, RecordSize: GRHSize - 1}
	_, err := ParseGRH(g.Encode())
	if !errors.Is(err, ErrMalformedHeader) {
		t.Fatalf("want ErrMalformedHeader, got %v", err)
	}
}

func TestParseGRHUnknownClassKept(t *testing.T) {
	t.Parallel()

	g := GRH{Class: RecordClass(99), RecordSize: 64}
	got, err := ParseGRH(g.Encode())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Class != ClassUnknown {
		t.Fatalf("class %d should map to ClassUnknown, got %v", 99, got.Class)
	}
	if got.RecordSize != 64 {
		t.Fatalf("record size should survive unknown class, got %d", got.RecordSize)
	}
}

func TestGRHTimesUseInstrumentEpoch(t *testing.T) {
	t.Parallel()

	g := GRH{Class: ClassMDR, RecordSize: GRHSize, StartDay: 1, StartMsec: 3_600_000}
	want := time.Date(2000, 1, 2, 1, 0, 0, 0, time.UTC)
	if got := g.StartTime(); !got.Equal(want) {
		t.Fatalf("start time: got %v want %v", got, want)
	}
}
