package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/graphitebrowser/graphite/internal/appconfig"
	"pkt.systems/pslog"
)

// browserCandidates are tried in order when engine.exec_path is unset,
// matching chromedp's own lookup list.
var browserCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

func newDoctorCmd() *cobra.Command {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run graphite diagnostics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())

			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			configPath := cfgPath
			if strings.TrimSpace(configPath) == "" {
				defaultPath, err := appconfig.DefaultConfigPath()
				if err != nil {
					return err
				}
				configPath = defaultPath
			}
			logger.Info("doctor start", "config", configPath)

			execPath, err := resolveBrowser(cfg.Engine.ExecPath)
			if err != nil {
				return err
			}
			logger.Info("doctor browser ok", "exec_path", execPath)

			if err := verifyWritableDir(cfg.StateDir); err != nil {
				return fmt.Errorf("state dir %q: %w", cfg.StateDir, err)
			}
			logger.Info("doctor state dir ok", "dir", cfg.StateDir)

			if cfg.Engine.UserDataDir != "" {
				if err := verifyWritableDir(cfg.Engine.UserDataDir); err != nil {
					return fmt.Errorf("user data dir %q: %w", cfg.Engine.UserDataDir, err)
				}
				logger.Info("doctor profile dir ok", "dir", cfg.Engine.UserDataDir)
			}

			for _, source := range cfg.Filter.Lists {
				if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
					continue
				}
				if _, err := os.Stat(source); err != nil {
					return fmt.Errorf("filter list %q: %w", source, err)
				}
			}
			logger.Info("doctor filter lists ok", "count", len(cfg.Filter.Lists))

			logger.Info("doctor ok")
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	return cmd
}

func resolveBrowser(execPath string) (string, error) {
	if strings.TrimSpace(execPath) != "" {
		if _, err := os.Stat(execPath); err != nil {
			return "", fmt.Errorf("engine.exec_path %q: %w", execPath, err)
		}
		return execPath, nil
	}
	for _, candidate := range browserCandidates {
		if found, err := exec.LookPath(candidate); err == nil {
			return found, nil
		}
	}
	return "", fmt.Errorf("no browser binary found on PATH (tried %s); set engine.exec_path", strings.Join(browserCandidates, ", "))
}

func verifyWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	probe := filepath.Join(dir, ".doctor-probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		return err
	}
	return os.Remove(probe)
}
