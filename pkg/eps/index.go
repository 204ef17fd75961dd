package eps

import (
	"encoding/binary"
	"fmt"
)

// PointerEntry locates one MDR: its position in file order, its byte
// offset and its byte length. The index is built once at open and lets
// the K-th measurement be reached without decoding the K-1 before it.
type PointerEntry struct {
	Index  int
	Offset int64
	Length int64
}

// IPR is one decoded Internal Pointer Record: the offset of the first
// record of a class.
type IPR struct {
	TargetClass           RecordClass
	TargetInstrumentGroup uint8
	TargetOffset          uint32
}

const iprPayloadSize = 6

func parseIPR(payload []byte) (IPR, error) {
	if len(payload) < iprPayloadSize {
		return IPR{}, fmt.Errorf("%w: IPR payload %d bytes", ErrIndexCorrupt, len(payload))
	}
	return IPR{
		TargetClass:           RecordClass(payload[0]),
		TargetInstrumentGroup: payload[1],
		TargetOffset:          binary.BigEndian.Uint32(payload[2:6]),
	}, nil
}

// buildPointerIndex walks the contiguous MDR region starting at first,
// reading only each record's GRH and striding by its declared size.
// The final record may be clipped by the end of the file; that entry
// keeps its real (shorter) length so the decoder can recover it as a
// truncated record.
func buildPointerIndex(data []byte, first int64) ([]PointerEntry, error) {
	size := int64(len(data))
	if first < 0 || first > size {
		return nil, fmt.Errorf("%w: first MDR offset %d outside file of %d bytes", ErrIndexCorrupt, first, size)
	}

	var entries []PointerEntry
	offset := first
	for offset < size {
		if size-offset < GRHSize {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d cannot hold a record header", ErrIndexCorrupt, size-offset, offset)
		}
		grh, err := ParseGRH(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("%w: offset %d: %v", ErrIndexCorrupt, offset, err)
		}
		if grh.Class != ClassMDR && grh.Class != ClassUnknown {
			return nil, fmt.Errorf("%w: offset %d holds a %s record inside the MDR region", ErrIndexCorrupt, offset, grh.Class)
		}
		length := int64(grh.RecordSize)
		if offset+length > size {
			// Incomplete trailing block: keep what is there.
			length = size - offset
		}
		next := offset + int64(grh.RecordSize)
		if next <= offset {
			return nil, fmt.Errorf("%w: non-increasing offset at MDR %d", ErrIndexCorrupt, len(entries))
		}
		entries = append(entries, PointerEntry{Index: len(entries), Offset: offset, Length: length})
		offset = next
	}
	return entries, nil
}
