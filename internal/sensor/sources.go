package sensor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/luki/gpumon/internal/command"
)

// Source labels as shown to the user.
const (
	LabelVendor      = "NVIDIA GPU"
	LabelPlatform    = "GPU"
	LabelPlaceholder = "GPU (data unavailable)"
)

// Commands are the external command lines each source runs. The parsers
// depend on the output format these exact queries produce.
type Commands struct {
	Identity    command.Line `yaml:"identity"`
	Vendor      command.Line `yaml:"vendor"`
	ThermalZone command.Line `yaml:"thermal_zone"`
	Utilization command.Line `yaml:"utilization"`
}

// DefaultCommands returns the stock queries for wmic, nvidia-smi and
// PowerShell.
func DefaultCommands() Commands {
	return Commands{
		Identity: command.Line{
			"wmic", "path", "win32_VideoController", "get",
			"Name,AdapterRAM,DriverVersion,VideoProcessor,Status", "/format:list",
		},
		Vendor: command.Line{
			"nvidia-smi",
			"--query-gpu=temperature.gpu,utilization.gpu,fan.speed,power.draw,memory.used,memory.total",
			"--format=csv,noheader,nounits",
		},
		ThermalZone: command.Line{
			"wmic", `/namespace:\\root\WMI`, "path", "MSAcpi_ThermalZoneTemperature",
			"get", "CurrentTemperature", "/value",
		},
		Utilization: command.Line{
			"powershell", "-Command",
			`Get-Counter '\GPU Engine(*)\Utilization Percentage' | ` +
				`Select-Object -ExpandProperty CounterSamples | ` +
				`Where-Object {$_.InstanceName -like '*engtype_3D*'} | ` +
				`Measure-Object -Property CookedValue -Maximum | ` +
				`Select-Object -ExpandProperty Maximum`,
		},
	}
}

// thermalZonePrefix precedes the value line of the thermal zone query.
const thermalZonePrefix = "CurrentTemperature="

// Strategy is one way of obtaining a sensor record. Attempt returns a
// *SourceError when the source cannot supply a record at all.
type Strategy interface {
	Label() string
	Attempt(ctx context.Context) (Record, error)
}

// ── Vendor tool ─────────────────────────────────────────────────────

// VendorStrategy reads all six fields from the vendor CSV query.
type VendorStrategy struct {
	runner command.Runner
	query  command.Line
	logger *slog.Logger
}

// NewVendorStrategy returns a VendorStrategy that runs query through r.
func NewVendorStrategy(r command.Runner, query command.Line, logger *slog.Logger) *VendorStrategy {
	return &VendorStrategy{runner: r, query: query, logger: logger}
}

func (s *VendorStrategy) Label() string { return LabelVendor }

// Attempt fails if the tool cannot be run, exits non-zero, or returns
// fewer fields than queried.
func (s *VendorStrategy) Attempt(ctx context.Context) (Record, error) {
	out, err := command.RunLine(ctx, s.runner, s.query)
	if err != nil {
		return Record{}, &SourceError{Source: s.Label(), Err: err}
	}
	if !out.Succeeded {
		return Record{}, &SourceError{Source: s.Label(), Err: errors.New(s.query.Name() + " exited with non-zero status")}
	}

	rec, skipped, err := ParseVendorCSV(out.Stdout)
	if err != nil {
		return Record{}, &SourceError{Source: s.Label(), Err: err}
	}
	for _, pe := range skipped {
		s.logger.Debug("vendor field unavailable", "field", pe.Field, "input", pe.Input)
	}
	return rec, nil
}

// ── Platform management interface ───────────────────────────────────

// PlatformStrategy combines the ACPI thermal zone temperature with the
// GPU engine utilization counter. Each sub-query is best effort; fan,
// power and memory are never reported.
type PlatformStrategy struct {
	runner      command.Runner
	thermalZone command.Line
	utilization command.Line
	logger      *slog.Logger
}

// NewPlatformStrategy returns a PlatformStrategy running both queries
// through r.
func NewPlatformStrategy(r command.Runner, thermalZone, utilization command.Line, logger *slog.Logger) *PlatformStrategy {
	return &PlatformStrategy{
		runner:      r,
		thermalZone: thermalZone,
		utilization: utilization,
		logger:      logger,
	}
}

func (s *PlatformStrategy) Label() string { return LabelPlatform }

// Attempt never fails. A sub-query that cannot run or returns nothing
// usable leaves its field absent.
func (s *PlatformStrategy) Attempt(ctx context.Context) (Record, error) {
	var rec Record

	if out, ok := s.run(ctx, s.thermalZone); ok {
		if v, present := ParsePrefixedValue(out, thermalZonePrefix).Get(); present {
			rec.Temperature = Some(KelvinTenthsToCelsius(v))
		}
	}
	if out, ok := s.run(ctx, s.utilization); ok {
		rec.Utilization = ParsePrefixedValue(out, "")
	}

	return rec, nil
}

// run executes one sub-query. Exit status is ignored; only a launch
// failure discards the output.
func (s *PlatformStrategy) run(ctx context.Context, l command.Line) (string, bool) {
	out, err := command.RunLine(ctx, s.runner, l)
	if err != nil {
		s.logger.Debug("platform query failed", "command", l.Name(), "error", err)
		return "", false
	}
	return out.Stdout, true
}

// ── Placeholder ─────────────────────────────────────────────────────

// PlaceholderStrategy is the terminal fallback. It makes no external call
// and reports zeros under its own label so it cannot be mistaken for a
// measured reading.
type PlaceholderStrategy struct{}

func (PlaceholderStrategy) Label() string { return LabelPlaceholder }

func (PlaceholderStrategy) Attempt(context.Context) (Record, error) {
	return Record{
		Temperature: Some(0),
		Utilization: Some(0),
		FanSpeed:    Some(0),
		PowerDraw:   Some(0),
	}, nil
}
