package eps

import (
	"encoding/binary"
	"fmt"
	"time"
)

// GRHSize is the fixed byte length of the Generic Record Header that
// frames every record in an EPS native file.
const GRHSize = 20

// RecordClass identifies the kind of record a GRH frames.
type RecordClass uint8

const (
	ClassUnknown RecordClass = 0
	ClassMPHR    RecordClass = 1
	ClassSPHR    RecordClass = 2
	ClassIPR     RecordClass = 3
	ClassGEADR   RecordClass = 4
	ClassGIADR   RecordClass = 5
	ClassVEADR   RecordClass = 6
	ClassVIADR   RecordClass = 7
	ClassMDR     RecordClass = 8
)

func (c RecordClass) String() string {
	switch c {
	case ClassMPHR:
		return "MPHR"
	case ClassSPHR:
		return "SPHR"
	case ClassIPR:
		return "IPR"
	case ClassGEADR:
		return "GEADR"
	case ClassGIADR:
		return "GIADR"
	case ClassVEADR:
		return "VEADR"
	case ClassVIADR:
		return "VIADR"
	case ClassMDR:
		return "MDR"
	default:
		return "unknown"
	}
}

// GRH is the fixed header preceding every record. RecordSize includes
// the header itself, so a record's byte span is exactly
// [offset, offset+RecordSize).
type GRH struct {
	Class           RecordClass
	InstrumentGroup uint8
	Subclass        uint8
	SubclassVersion uint8
	RecordSize      uint32
	StartDay        uint16
	StartMsec       uint32
	StopDay         uint16
	StopMsec        uint32
}

// ParseGRH decodes a GRH from the first GRHSize bytes of b.
//
// A record class outside the known enumeration is tagged ClassUnknown
// rather than rejected, so a single bad record does not abort the whole
// file. A buffer shorter than the header or a declared size smaller
// than the header itself is ErrMalformedHeader.
func ParseGRH(b []byte) (GRH, error) {
	if len(b) < GRHSize {
		return GRH{}, fmt.Errorf("%w: %d bytes, need %d", ErrMalformedHeader, len(b), GRHSize)
	}
	g := GRH{
		Class:           RecordClass(b[0]),
		InstrumentGroup: b[1],
		Subclass:        b[2],
		SubclassVersion: b[3],
		RecordSize:      binary.BigEndian.Uint32(b[4:8]),
		StartDay:        binary.BigEndian.Uint16(b[8:10]),
		StartMsec:       binary.BigEndian.Uint32(b[10:14]),
		StopDay:         binary.BigEndian.Uint16(b[14:16]),
		StopMsec:        binary.BigEndian.Uint32(b[16:20]),
	}
	if g.Class < ClassMPHR || g.Class > ClassMDR {
		g.Class = ClassUnknown
	}
	if g.RecordSize < GRHSize {
		return GRH{}, fmt.Errorf("%w: record size %d below header size", ErrMalformedHeader, g.RecordSize)
	}
	return g, nil
}

// PayloadSize is the record size minus the header.
func (g GRH) PayloadSize() int { return int(g.RecordSize) - GRHSize }

// StartTime converts the start day/msec pair to a UTC timestamp.
func (g GRH) StartTime() time.Time { return EpochTime(int64(g.StartDay), int64(g.StartMsec)) }

// StopTime converts the stop day/msec pair to a UTC timestamp.
func (g GRH) StopTime() time.Time { return EpochTime(int64(g.StopDay), int64(g.StopMsec)) }

// Encode writes the header back into a GRHSize byte slice. It is used
// by the synthetic file builder in epstest and by tooling that prints
// raw headers.
func (g GRH) Encode() []byte {
	b := make([]byte, GRHSize)
	b[0] = byte(g.Class)
	b[1] = g.InstrumentGroup
	b[2] = g.Subclass
	b[3] = g.SubclassVersion
	binary.BigEndian.PutUint32(b[4:8], g.RecordSize)
	binary.BigEndian.PutUint16(b[8:10], g.StartDay)
	binary.BigEndian.PutUint32(b[10:14], g.StartMsec)
	binary.BigEndian.PutUint16(b[14:16], g.StopDay)
	binary.BigEndian.PutUint32(b[16:20], g.StopMsec)
	return b
}
