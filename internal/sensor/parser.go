package sensor

import (
	"fmt"
	"strconv"
	"strings"
)

// ── Identity list (wmic /format:list) ───────────────────────────────

// ParseIdentityList parses Key=Value blocks separated by blank lines into
// one AdapterIdentity per block. Blocks without any recognized key are
// dropped. A final block does not need a trailing blank line.
func ParseIdentityList(output string) []AdapterIdentity {
	var adapters []AdapterIdentity
	var current AdapterIdentity
	recognized := false

	flush := func() {
		if recognized {
			adapters = append(adapters, current)
		}
		current = AdapterIdentity{}
		recognized = false
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		switch key {
		case "Name":
			current.Name = value
		case "AdapterRAM":
			current.Memory = FormatMemorySize(value)
		case "DriverVersion":
			current.DriverVersion = value
		case "VideoProcessor":
			current.Processor = value
		case "Status":
			current.Status = value
		default:
			continue
		}
		recognized = true
	}
	flush()

	return adapters
}

// FormatMemorySize renders a byte count as gigabytes with one decimal,
// e.g. "1073741824" -> "1.0 GB". Anything that is not an unsigned
// integer is returned unchanged.
func FormatMemorySize(raw string) string {
	bytes, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%.1f GB", float64(bytes)/(1<<30))
}

// ── Vendor CSV (nvidia-smi --format=csv,noheader,nounits) ───────────

// vendorFields is the column order of the vendor query.
var vendorFields = []string{
	"temperature",
	"utilization",
	"fan_speed",
	"power_draw",
	"memory_used",
	"memory_total",
}

// ParseVendorCSV parses the first non-empty line of a vendor CSV response.
// It fails with ErrInsufficientData when fewer than six fields are
// present. A field that is present but not numeric, such as "[N/A]",
// leaves that field absent and is returned as a ParseError; the other
// fields are unaffected.
func ParseVendorCSV(output string) (Record, []*ParseError, error) {
	line := firstLine(output)
	fields := strings.Split(line, ",")
	if line == "" || len(fields) < len(vendorFields) {
		return Record{}, nil, fmt.Errorf("vendor csv: got %d fields, want %d: %w",
			countFields(line), len(vendorFields), ErrInsufficientData)
	}

	var skipped []*ParseError
	values := make([]Metric, len(vendorFields))
	for i, name := range vendorFields {
		raw := strings.TrimSpace(fields[i])
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			skipped = append(skipped, &ParseError{Field: name, Input: raw, Err: err})
			continue
		}
		values[i] = Some(v)
	}

	return Record{
		Temperature: values[0],
		Utilization: values[1],
		FanSpeed:    values[2],
		PowerDraw:   values[3],
		MemoryUsed:  values[4],
		MemoryTotal: values[5],
	}, skipped, nil
}

func firstLine(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

func countFields(line string) int {
	if line == "" {
		return 0
	}
	return strings.Count(line, ",") + 1
}

// ── Single value lines (wmic /value, PowerShell counters) ───────────

// ParsePrefixedValue finds the first line starting with prefix whose
// remainder is a number. An empty prefix matches a bare numeric line.
// The result is absent when no such line exists.
func ParsePrefixedValue(output, prefix string) Metric {
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, prefix) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(line[len(prefix):]), 64)
		if err != nil {
			continue
		}
		return Some(v)
	}
	return Metric{}
}

// KelvinTenthsToCelsius converts an ACPI thermal zone reading, reported
// in tenths of a Kelvin, to degrees Celsius.
func KelvinTenthsToCelsius(v float64) float64 {
	return v/10.0 - 273.15
}
