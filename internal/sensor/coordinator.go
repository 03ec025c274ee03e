package sensor

import (
	"context"
	"io"
	"log/slog"

	"github.com/luki/gpumon/internal/command"
)

// Coordinator acquires adapter identities and sensor records. Sensors
// come from an ordered strategy chain where the first success wins;
// identities come from a single list query.
type Coordinator struct {
	runner     command.Runner
	identity   command.Line
	strategies []Strategy
	fallback   Strategy
	logger     *slog.Logger
}

// NewCoordinator builds the default chain: vendor tool, then platform
// management interface, then the placeholder.
func NewCoordinator(r command.Runner, cmds Commands, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		runner:   r,
		identity: cmds.Identity,
		strategies: []Strategy{
			NewVendorStrategy(r, cmds.Vendor, logger),
			NewPlatformStrategy(r, cmds.ThermalZone, cmds.Utilization, logger),
		},
		fallback: PlaceholderStrategy{},
		logger:   logger,
	}
}

// WithStrategies replaces the strategy chain, keeping the placeholder as
// the terminal fallback.
func (c *Coordinator) WithStrategies(strategies ...Strategy) *Coordinator {
	c.strategies = strategies
	return c
}

// AcquireSensors tries each strategy in order and returns a collection
// holding the first successful record under that strategy's label.
// Strategies after the first success are not run. The collection is
// never empty.
func (c *Coordinator) AcquireSensors(ctx context.Context) Collection {
	sensors := make(Collection, 1)

	for _, s := range c.strategies {
		rec, err := s.Attempt(ctx)
		if err != nil {
			c.logger.Debug("sensor source failed, falling back", "source", s.Label(), "error", err)
			continue
		}
		sensors[s.Label()] = rec
		return sensors
	}

	// With the default chain this is dead code: PlatformStrategy never
	// fails, so the placeholder only appears for custom chains whose
	// strategies can all fail.
	rec, _ := c.fallback.Attempt(ctx)
	c.logger.Warn("no sensor source available", "label", c.fallback.Label())
	sensors[c.fallback.Label()] = rec
	return sensors
}

// AcquireIdentities runs the identity list query. Any failure yields an
// empty list; a non-zero exit status still parses whatever was printed.
func (c *Coordinator) AcquireIdentities(ctx context.Context) []AdapterIdentity {
	out, err := command.RunLine(ctx, c.runner, c.identity)
	if err != nil {
		c.logger.Debug("identity query failed", "command", c.identity.Name(), "error", err)
		return nil
	}
	if !out.Succeeded {
		c.logger.Debug("identity query exited non-zero", "command", c.identity.Name())
	}
	return ParseIdentityList(out.Stdout)
}
