// Command modelstage resolves and stages model versions from remote or
// local storage into a local cache directory.
//
// For every configured model it enumerates the integer-named version
// directories under the model root, applies the version policy, downloads
// the selected version trees into the staging root, and records fully
// staged versions in the ledger. The populated staging tree is what an
// inference engine loads from.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/modelstage/modelstage/internal/logger"
	"github.com/modelstage/modelstage/internal/throttle"
	"github.com/modelstage/modelstage/pkg/config"
	"github.com/modelstage/modelstage/pkg/ledger"
	"github.com/modelstage/modelstage/pkg/metrics"
	"github.com/modelstage/modelstage/pkg/model"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/modelstage/config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "modelstage: %v\n", err)
		os.Exit(1)
	}

	logger.SetLevel(cfg.Logging.Level)
	if err := logger.SetOutput(cfg.Logging.Output); err != nil {
		fmt.Fprintf(os.Stderr, "modelstage: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		metricsServer = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsServer.Start(); err != nil {
				logger.Error("%v", err)
			}
		}()
	}

	var stagedLedger *ledger.Ledger
	if cfg.Ledger.Enabled {
		stagedLedger, err = ledger.Open(cfg.Ledger.Path)
		if err != nil {
			logger.Error("%v", err)
			os.Exit(1)
		}
		defer stagedLedger.Close()
	}

	failed := run(ctx, cfg, stagedLedger)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown: %v", err)
		}
	}

	if failed {
		os.Exit(1)
	}
}

// run stages every configured model. Model-level failures are logged and
// reported in the exit status, but never stop the remaining models.
func run(ctx context.Context, cfg *config.Config, stagedLedger *ledger.Ledger) (failed bool) {
	staging, err := model.NewStaging(cfg.Fetch.StagingRoot)
	if err != nil {
		logger.Error("%v", err)
		return true
	}

	for _, mc := range cfg.Models {
		if err := ctx.Err(); err != nil {
			logger.Warn("Staging interrupted: %v", err)
			return true
		}
		if err := stageModel(ctx, cfg, staging, stagedLedger, mc); err != nil {
			logger.Error("Model %s: %v", mc.Name, err)
			failed = true
		}
	}
	return failed
}

// stageModel resolves, selects, and fetches the versions of one model.
func stageModel(ctx context.Context, cfg *config.Config, staging *model.Staging, stagedLedger *ledger.Ledger, mc config.ModelConfig) error {
	backend, root, err := config.CreateBackend(ctx, &cfg.Storage, mc.Path)
	if err != nil {
		return err
	}

	available, err := model.ListVersions(ctx, backend, root)
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return fmt.Errorf("no versions found under %s", root)
	}

	policy := model.Policy{Latest: mc.Policy.Latest}
	for _, v := range mc.Policy.Versions {
		policy.Versions = append(policy.Versions, model.Version(v))
	}
	selected := policy.Select(available)
	if len(selected) == 0 {
		return fmt.Errorf("policy selected no versions out of %d available", len(available))
	}
	logger.Info("Model %s: staging %d of %d available version(s)", mc.Name, len(selected), len(available))

	fetcher := model.NewFetcher(backend, model.FetcherConfig{
		AcceptedExtensions: cfg.Fetch.AcceptedExtensions,
		MaxDepth:           cfg.Fetch.MaxDepth,
		Concurrency:        cfg.Fetch.Concurrency,
		Metrics:            metrics.NewFetchMetrics(),
		Throttle:           throttle.New(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst),
	})

	fetchErr := fetcher.FetchVersions(ctx, root, staging.ModelDir(mc.Name), selected)

	// Record every version that staged fully, even when others failed:
	// version-level failures are independent.
	recordStaged(ctx, stagedLedger, staging, mc.Name, selected, fetchErr)

	return fetchErr
}

// recordStaged writes ledger entries for the versions a fetch materialized.
func recordStaged(ctx context.Context, stagedLedger *ledger.Ledger, staging *model.Staging, name string, selected []model.Version, fetchErr error) {
	if stagedLedger == nil {
		return
	}

	failedSet := make(map[model.Version]struct{})
	var versionsErr *model.FetchVersionsError
	if errors.As(fetchErr, &versionsErr) {
		for _, v := range versionsErr.FailedVersions() {
			failedSet[v] = struct{}{}
		}
	}

	for _, v := range selected {
		if _, ok := failedSet[v]; ok {
			continue
		}
		dir := staging.VersionDir(name, v)
		entry := ledger.Entry{
			Model:     name,
			Version:   int64(v),
			LocalPath: dir,
			Bytes:     dirSize(dir),
			StagedAt:  time.Now(),
		}
		if err := stagedLedger.Record(ctx, entry); err != nil {
			logger.Warn("Ledger: failed to record %s version %s: %v", name, v, err)
		}
	}
}

// dirSize sums the file sizes under a staged version directory.
func dirSize(root string) int64 {
	var total int64
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
