package cmd

import (
	"fmt"

	"github.com/user/netaudit/pkg/auditor"
	"github.com/user/netaudit/pkg/collector"
	"github.com/user/netaudit/pkg/config"
	"github.com/user/netaudit/pkg/engine"
	"github.com/user/netaudit/pkg/inventory"
	"github.com/user/netaudit/pkg/logging"
	"github.com/user/netaudit/pkg/remote"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	if ConfigFile != "" {
		return config.LoadFrom(ConfigFile)
	}
	return config.LoadConfig()
}

func saveConfig(cfg *config.Config) error {
	if ConfigFile != "" {
		return config.SaveTo(ConfigFile, cfg)
	}
	return config.SaveConfig(cfg)
}

func newLogger() (*zap.Logger, error) {
	logger, err := logging.New(DebugMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return logger, nil
}

// auditSetup is everything an audit run needs, loaded up front so that a
// bad inventory or baseline stops the command before any device is touched.
type auditSetup struct {
	Devices  []inventory.Device
	Baseline *engine.Baseline
	Auditor  *auditor.Auditor
}

func newAuditSetup(cfg config.AuditConfig, logger *zap.Logger) (*auditSetup, error) {
	devices, err := inventory.Load(cfg.InventoryFile)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded inventory", zap.Int("devices", len(devices)), zap.String("file", cfg.InventoryFile))

	baseline, err := engine.LoadBaseline(cfg.BaselinesDir)
	if err != nil {
		return nil, err
	}
	logger.Info("loaded baselines", zap.Int("categories", len(baseline.Sets)), zap.Int("rules", baseline.RuleCount()))

	dialer, err := remote.NewSSHDialer(cfg.SSHTimeout, cfg.KnownHostsFile)
	if err != nil {
		return nil, err
	}

	a := auditor.New(baseline, dialer, collector.New(cfg.MinUID, logger), logger)
	return &auditSetup{Devices: devices, Baseline: baseline, Auditor: a}, nil
}
