package eps

import "errors"

var (
	ErrMalformedHeader    = errors.New("malformed generic record header")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrIndexOutOfRange    = errors.New("MDR index out of range")
	ErrIndexCorrupt       = errors.New("corrupt internal pointer index")
	ErrFieldNotPresent    = errors.New("field not present in record")
	ErrFileClosed         = errors.New("native file is closed")
	ErrCorruptFile        = errors.New("corrupt native file")
)
