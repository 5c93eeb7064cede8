// Package auditor runs the compliance pipeline over an inventory: connect to
// each device, extract its facts, evaluate them against the baseline and
// score the result.
package auditor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/netaudit/pkg/collector"
	"github.com/user/netaudit/pkg/engine"
	"github.com/user/netaudit/pkg/inventory"
	"github.com/user/netaudit/pkg/remote"
	"go.uber.org/zap"
)

// Auditor audits devices one at a time
type Auditor struct {
	baseline  *engine.Baseline
	dialer    remote.Dialer
	collector *collector.Collector
	logger    *zap.Logger
	now       func() time.Time
}

// New creates an auditor
func New(baseline *engine.Baseline, dialer remote.Dialer, c *collector.Collector, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		baseline:  baseline,
		dialer:    dialer,
		collector: c,
		logger:    logger,
		now:       time.Now,
	}
}

// Baseline returns the rules the auditor evaluates against
func (a *Auditor) Baseline() *engine.Baseline {
	return a.baseline
}

// deviceError marks failures that exclude a single device from the run
type deviceError struct {
	stage string
	err   error
}

func (e *deviceError) Error() string { return e.stage + ": " + e.err.Error() }
func (e *deviceError) Unwrap() error { return e.err }

// Run audits every device in order. Devices that cannot be reached, or whose
// commands fail, are logged and left out of the results. Any other error
// stops the run.
func (a *Auditor) Run(ctx context.Context, devices []inventory.Device) ([]engine.AuditResult, error) {
	runID := uuid.NewString()
	a.logger.Info("starting audit", zap.String("run_id", runID), zap.Int("devices", len(devices)))

	results := make([]engine.AuditResult, 0, len(devices))
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := a.AuditDevice(ctx, device)
		if err != nil {
			var de *deviceError
			if errors.As(err, &de) {
				a.logger.Warn("device skipped",
					zap.String("device", device.Hostname),
					zap.String("ip", device.IP),
					zap.String("stage", de.stage),
					zap.Error(de.err))
				continue
			}
			return results, fmt.Errorf("audit %s: %w", device.Hostname, err)
		}
		result.RunID = runID
		results = append(results, result)
	}

	a.logger.Info("audit finished", zap.String("run_id", runID), zap.Int("audited", len(results)), zap.Int("skipped", len(devices)-len(results)))
	return results, nil
}

// AuditDevice audits a single device. The remote session is always closed
// before returning.
func (a *Auditor) AuditDevice(ctx context.Context, device inventory.Device) (engine.AuditResult, error) {
	log := a.logger.With(zap.String("device", device.Hostname))
	log.Info("auditing device", zap.String("ip", device.IP))

	session, err := a.dialer.Dial(ctx, device)
	if err != nil {
		return engine.AuditResult{}, &deviceError{stage: "connect", err: err}
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Debug("closing session", zap.Error(err))
		}
	}()

	facts, err := a.collector.Collect(ctx, session)
	if err != nil {
		return engine.AuditResult{}, &deviceError{stage: "collect", err: err}
	}

	violations, categories, err := a.baseline.Evaluate(device.Hostname, facts)
	if err != nil {
		return engine.AuditResult{}, err
	}

	critical, warning := engine.CountSeverity(violations)
	result := engine.AuditResult{
		Device:             device.Hostname,
		IP:                 device.IP,
		Timestamp:          a.now(),
		SecurityScore:      engine.Score(violations),
		TotalViolations:    len(violations),
		CriticalViolations: critical,
		WarningViolations:  warning,
		Categories:         categories,
		Violations:         violations,
	}
	if result.Violations == nil {
		result.Violations = []engine.Violation{}
	}

	log.Info("audit complete",
		zap.Int("score", result.SecurityScore),
		zap.Int("critical", critical),
		zap.Int("warning", warning))
	return result, nil
}
