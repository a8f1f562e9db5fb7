package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/graphitebrowser/graphite"
	"github.com/graphitebrowser/graphite/core"
	"github.com/graphitebrowser/graphite/httpapi"
	"github.com/graphitebrowser/graphite/internal/appconfig"
	"github.com/graphitebrowser/graphite/internal/chrome"
	"github.com/graphitebrowser/graphite/schema"
	"pkt.systems/pslog"
)

func newServeCmd() *cobra.Command {
	var cfgPath string
	var headless bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the graphite coordination server",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if headless {
				cfg.Engine.Headless = true
			}

			serverCfg := toServerConfig(cfg)
			server, err := graphite.New(serverCfg, graphite.ServerDeps{
				ServiceDeps: core.ServiceDeps{Logger: logger},
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			logger.Info("http server listening", "addr", serverCfg.HTTP.Addr)
			if err := server.Start(ctx); err != nil {
				return err
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().BoolVar(&headless, "headless", false, "run the engine without a visible window")
	return cmd
}

func toServerConfig(cfg appconfig.Config) graphite.ServerConfig {
	return graphite.ServerConfig{
		Service: schema.ServiceConfig{
			StateDir:        cfg.StateDir,
			HomeURL:         cfg.HomeURL,
			SearchTemplate:  cfg.Search.Template,
			PersistInterval: time.Duration(cfg.Tabs.PersistIntervalMS) * time.Millisecond,
			RestoreOnStart:  cfg.Tabs.RestoreOnStart,
		},
		HTTP: httpapi.Config{
			Addr: cfg.HTTP.Addr,
		},
		Engine: chrome.Config{
			ExecPath:    cfg.Engine.ExecPath,
			Headless:    cfg.Engine.Headless,
			UserDataDir: cfg.Engine.UserDataDir,
			NoSandbox:   cfg.Engine.NoSandbox,
		},
		Filter: graphite.FilterConfig{
			Enabled:      cfg.Filter.Enabled,
			HTTPSUpgrade: cfg.Filter.HTTPSUpgrade,
			Lists:        cfg.Filter.Lists,
		},
		HubHistory: 1000,
	}
}
