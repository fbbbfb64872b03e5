// Command redisd is the server binary: it wires together configuration,
// logging, metrics, the keyspace, AOF durability, and the connection
// runtime, then serves until told to stop. Grounded on the teacher's
// cmd/server/main.go (flag parsing, signal-triggered shutdown), with
// flag.Parse swapped for a cobra.Command the way kcl's command tree does
// it (other_examples' consume.go) since this pack carries cobra/pflag as
// its CLI stack.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"redisd/internal/aof"
	"redisd/internal/command"
	"redisd/internal/conn"
	"redisd/internal/config"
	"redisd/internal/metrics"
	"redisd/internal/obs"
	"redisd/internal/store"
)

// cliOverrides holds the flags that mirror spec.md §6's consumed config
// keys; each overrides the matching value from the config file when set.
type cliOverrides struct {
	development bool
	metricsAddr string
	bind        []string
	port        int
	databases   int
	appendonly  string
	appendfsync string
	dir         string
}

func main() {
	var o cliOverrides

	root := &cobra.Command{
		Use:   "redisd [config-file]",
		Short: "An in-memory key-value server speaking the Redis wire protocol.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var configPath string
			if len(args) == 1 {
				configPath = args[0]
			}
			return run(configPath, cmd, o)
		},
	}
	root.Flags().BoolVar(&o.development, "dev", false, "use a human-readable development logger instead of JSON")
	root.Flags().StringVar(&o.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on (empty disables it)")
	root.Flags().StringSliceVar(&o.bind, "bind", nil, "override the bind address(es)")
	root.Flags().IntVar(&o.port, "port", 0, "override the listen port")
	root.Flags().IntVar(&o.databases, "databases", 0, "override the number of logical databases")
	root.Flags().StringVar(&o.appendonly, "appendonly", "", "override appendonly (yes/no)")
	root.Flags().StringVar(&o.appendfsync, "appendfsync", "", "override appendfsync (always/everysec/no)")
	root.Flags().StringVar(&o.dir, "dir", "", "override the directory the AOF file is written under")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, cmd *cobra.Command, o cliOverrides) error {
	cfg, err := config.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("redisd: %w", err)
	}
	applyCLIOverrides(cfg, cmd, o)

	log, err := obs.NewLogger(cfg.LogDevelopment)
	if err != nil {
		return fmt.Errorf("redisd: logger: %w", err)
	}
	defer log.Sync()

	met := metrics.NewRegistry()
	if o.metricsAddr != "" {
		go serveMetrics(o.metricsAddr, met, log)
	}

	ks := store.NewKeyspace(cfg.Databases)
	disp := command.NewDispatcher(log)

	appender, err := aof.NewAppender(cfg.AOF, func(err error) {
		log.Error("aof write failed", zap.Error(err))
		met.AOFErrorsTotal.Inc()
	})
	if err != nil {
		return fmt.Errorf("redisd: aof: %w", err)
	}
	defer appender.Close()

	if cfg.AOF.Enabled {
		n, err := aof.Replay(cfg.AOF.Filepath, disp, ks)
		if err != nil {
			return fmt.Errorf("redisd: aof replay: %w", err)
		}
		log.Info("aof replay complete", zap.Int("commands", n))
	}
	disp.SetAOFSink(appender)

	srv := conn.New(ks, disp, log, met, conn.Options{
		Binds:                cfg.Bind,
		Port:                 cfg.Port,
		MaxConnections:       cfg.MaxConnections,
		IdleTimeout:          0,
		ActiveExpireInterval: 100 * time.Millisecond,
		ActiveExpireBudget:   20,
	}, cfg.AOF.Enabled)

	if err := srv.Start(); err != nil {
		return fmt.Errorf("redisd: %w", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown did not finish cleanly", zap.Error(err))
	}
	if err := appender.Flush(); err != nil {
		log.Warn("final aof flush failed", zap.Error(err))
	}
	return nil
}

// applyCLIOverrides layers flag values on top of the file-parsed config,
// only for flags the user actually set (Changed), so an unset flag never
// clobbers a config-file directive with its zero value.
func applyCLIOverrides(cfg *config.Config, cmd *cobra.Command, o cliOverrides) {
	if o.development {
		cfg.LogDevelopment = true
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind = o.bind
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = o.port
	}
	if cmd.Flags().Changed("databases") {
		cfg.Databases = o.databases
	}
	if cmd.Flags().Changed("appendonly") {
		cfg.AOF.Enabled = strings.EqualFold(o.appendonly, "yes")
	}
	if cmd.Flags().Changed("appendfsync") {
		switch strings.ToLower(o.appendfsync) {
		case "always":
			cfg.AOF.SyncPolicy = aof.SyncAlways
		case "no":
			cfg.AOF.SyncPolicy = aof.SyncNo
		default:
			cfg.AOF.SyncPolicy = aof.SyncEverySecond
		}
	}
	if cmd.Flags().Changed("dir") {
		cfg.AOF.Filepath = filepath.Join(o.dir, filepath.Base(cfg.AOF.Filepath))
	}
}

func serveMetrics(addr string, met *metrics.Registry, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", met.Handler())
	log.Info("serving metrics", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Warn("metrics server stopped", zap.Error(err))
	}
}
