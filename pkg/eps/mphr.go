package eps

import (
	"fmt"
	"strconv"
	"strings"
)

// MPHR is the Main Product Header Record: file-level metadata encoded
// as ASCII "NAME = VALUE" lines. The format version fields recorded
// here select the record layouts for the rest of the file, so the MPHR
// is always decoded first.
//
// Numeric fields that the producer left unset (filled with 'x') decode
// to -1. Values holds every line verbatim for introspection.
type MPHR struct {
	ProductName        string
	ParentProductName1 string
	InstrumentID       string
	InstrumentModel    int
	ProductType        string
	ProcessingLevel    string
	SpacecraftID       string
	SensingStart       string
	SensingEnd         string
	ProcessingCentre   string

	ProcessorMajorVersion int
	ProcessorMinorVersion int
	FormatMajorVersion    int
	FormatMinorVersion    int

	OrbitStart        int
	OrbitEnd          int
	ActualProductSize int

	TotalRecords int
	TotalMPHR    int
	TotalSPHR    int
	TotalIPR     int
	TotalGEADR   int
	TotalGIADR   int
	TotalVEADR   int
	TotalVIADR   int
	TotalMDR     int

	CountDegradedInstMDR int
	CountDegradedProcMDR int

	DurationOfProduct int
	SubsettedProduct  bool

	Values map[string]string
}

// ParseMPHR decodes the ASCII MPHR payload.
func ParseMPHR(payload []byte) (*MPHR, error) {
	values := make(map[string]string)
	for _, line := range strings.Split(string(payload), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: MPHR line without separator: %q", ErrCorruptFile, line)
		}
		values[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	m := &MPHR{Values: values}
	m.ProductName = values["PRODUCT_NAME"]
	m.ParentProductName1 = values["PARENT_PRODUCT_NAME_1"]
	m.InstrumentID = values["INSTRUMENT_ID"]
	m.InstrumentModel = intValue(values, "INSTRUMENT_MODEL")
	m.ProductType = values["PRODUCT_TYPE"]
	m.ProcessingLevel = values["PROCESSING_LEVEL"]
	m.SpacecraftID = values["SPACECRAFT_ID"]
	m.SensingStart = values["SENSING_START"]
	m.SensingEnd = values["SENSING_END"]
	m.ProcessingCentre = values["PROCESSING_CENTRE"]

	m.ProcessorMajorVersion = intValue(values, "PROCESSOR_MAJOR_VERSION")
	m.ProcessorMinorVersion = intValue(values, "PROCESSOR_MINOR_VERSION")
	m.FormatMajorVersion = intValue(values, "FORMAT_MAJOR_VERSION")
	m.FormatMinorVersion = intValue(values, "FORMAT_MINOR_VERSION")

	m.OrbitStart = intValue(values, "ORBIT_START")
	m.OrbitEnd = intValue(values, "ORBIT_END")
	m.ActualProductSize = intValue(values, "ACTUAL_PRODUCT_SIZE")

	m.TotalRecords = intValue(values, "TOTAL_RECORDS")
	m.TotalMPHR = intValue(values, "TOTAL_MPHR")
	m.TotalSPHR = intValue(values, "TOTAL_SPHR")
	m.TotalIPR = intValue(values, "TOTAL_IPR")
	m.TotalGEADR = intValue(values, "TOTAL_GEADR")
	m.TotalGIADR = intValue(values, "TOTAL_GIADR")
	m.TotalVEADR = intValue(values, "TOTAL_VEADR")
	m.TotalVIADR = intValue(values, "TOTAL_VIADR")
	m.TotalMDR = intValue(values, "TOTAL_MDR")

	m.CountDegradedInstMDR = intValue(values, "COUNT_DEGRADED_INST_MDR")
	m.CountDegradedProcMDR = intValue(values, "COUNT_DEGRADED_PROC_MDR")

	m.DurationOfProduct = intValue(values, "DURATION_OF_PRODUCT")

	switch values["SUBSETTED_PRODUCT"] {
	case "T", "1":
		m.SubsettedProduct = true
	}
	return m, nil
}

// Get returns the raw string value of an arbitrary MPHR line.
func (m *MPHR) Get(name string) (string, bool) {
	v, ok := m.Values[name]
	return v, ok
}

// FloatValue returns a named value scaled by 10^-scale, following the
// MPHR convention of milli-units stored as plain integers.
func (m *MPHR) FloatValue(name string, scale int) (float64, bool) {
	raw, ok := m.Values[name]
	if !ok || strings.ContainsRune(raw, 'x') {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f / pow10(scale), true
}

func intValue(values map[string]string, name string) int {
	raw, ok := values[name]
	if !ok || raw == "" || strings.ContainsRune(raw, 'x') {
		return -1
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
