// Command ritebridge is the Rite desktop backend: a JSON-RPC 2.0 server over
// a Unix domain socket that manages the encrypted connection vault, SSH and
// local terminal sessions, and the outbound event stream the desktop UI
// reacts to.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/armorclaw/bridge/pkg/audit"
	"github.com/armorclaw/bridge/pkg/config"
	"github.com/armorclaw/bridge/pkg/connections"
	"github.com/armorclaw/bridge/pkg/eventsink"
	"github.com/armorclaw/bridge/pkg/knownhosts"
	"github.com/armorclaw/bridge/pkg/localsession"
	"github.com/armorclaw/bridge/pkg/logger"
	"github.com/armorclaw/bridge/pkg/metrics"
	"github.com/armorclaw/bridge/pkg/pendinghostkeys"
	"github.com/armorclaw/bridge/pkg/rpc"
	"github.com/armorclaw/bridge/pkg/sessionregistry"
	"github.com/armorclaw/bridge/pkg/sshsession"
	"github.com/armorclaw/bridge/pkg/vault"
	"github.com/armorclaw/bridge/pkg/vaultcrypto"
	"github.com/armorclaw/bridge/pkg/vaultstore"
	"github.com/robfig/cron/v3"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to bridge.toml (defaults to the usual config search path)")
	metricsAddr := flag.String("metrics-addr", "", "address to serve Prometheus metrics on, e.g. 127.0.0.1:9090 (disabled if empty)")
	showVersion := flag.Bool("version", false, "print version and exit")
	runSetup := flag.Bool("setup", false, "run the interactive first-run setup wizard and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ritebridge %s (built %s)\n", version, buildTime)
		return
	}

	cfg := config.LoadOrDie(*configPath)

	logOutput := cfg.Logging.Output
	if logOutput == "file" {
		logOutput = cfg.Logging.File
	}
	baseLogger, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Output:    logOutput,
		Component: "ritebridge",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	securityLog := logger.NewSecurityLogger(baseLogger)

	auditLog := audit.NewTamperEvidentLog(audit.TamperEvidentConfig{Enabled: true})
	critLog := audit.NewCriticalOperationLogger(auditLog)

	storageKeyPath := filepath.Join(filepath.Dir(cfg.Vault.DBPath), "storage.key")
	storageKey, err := vaultcrypto.LoadOrCreateStorageKey(storageKeyPath)
	if err != nil {
		baseLogger.Error("failed to load storage key", "error", err)
		os.Exit(1)
	}

	store, err := vaultstore.Open(cfg.Vault.DBPath, storageKey)
	if err != nil {
		baseLogger.Error("failed to open vault database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	sink := eventsink.NewEventSink(securityLog)

	v, err := vault.New(store, securityLog, critLog, sink)
	if err != nil {
		baseLogger.Error("failed to initialize vault", "error", err)
		os.Exit(1)
	}

	if *runSetup {
		if err := runSetupWizard(v); err != nil {
			fmt.Fprintf(os.Stderr, "setup failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	connMgr := connections.New(store, v)
	hosts := knownhosts.New(store)
	pending := pendinghostkeys.New()

	sshEngine := sshsession.New(hosts, pending, sink, securityLog, critLog)
	localEngine := localsession.New(sink, securityLog, critLog)
	sessions := sessionregistry.New(connMgr, sshEngine, localEngine)

	server, err := rpc.New(rpc.Config{
		SocketPath:  cfg.Server.SocketPath,
		Vault:       v,
		Store:       store,
		Connections: connMgr,
		Hosts:       hosts,
		Pending:     pending,
		Sessions:    sessions,
		Sink:        sink,
		SecurityLog: securityLog,
	})
	if err != nil {
		baseLogger.Error("failed to construct RPC server", "error", err)
		os.Exit(1)
	}

	if err := server.Start(); err != nil {
		baseLogger.Error("failed to start RPC server", "error", err)
		os.Exit(1)
	}
	baseLogger.Info("ritebridge listening", "socket", cfg.Server.SocketPath, "version", version)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				baseLogger.Warn("metrics server stopped", "error", err)
			}
		}()
		baseLogger.Info("metrics listening", "addr", *metricsAddr)
	}

	maintenance := cron.New()
	if _, err := maintenance.AddFunc("@hourly", func() {
		if err := store.CleanOldUnlockAttempts(); err != nil {
			baseLogger.Warn("clean old unlock attempts failed", "error", err)
		}
		pending.CleanupExpired()
	}); err != nil {
		baseLogger.Error("failed to schedule maintenance job", "error", err)
		os.Exit(1)
	}
	maintenance.Start()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	baseLogger.Info("shutting down")
	<-maintenance.Stop().Done()
	sessions.CloseAll()
	v.Lock(context.Background())
	if err := server.Stop(); err != nil {
		baseLogger.Error("error stopping RPC server", "error", err)
	}
}

func init() {
	// Stdlib log output (config-loading and pre-migration-backup warnings)
	// goes to stderr; pkg/logger owns all other output once main runs.
	log.SetOutput(os.Stderr)
}
