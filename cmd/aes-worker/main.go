// Command aes-worker runs encrypted AES jobs from a Redis queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/luxfi/cryptobit"
	"github.com/luxfi/cryptobit/he"
	"github.com/luxfi/cryptobit/internal/backend"
	"github.com/luxfi/cryptobit/internal/logging"
	"github.com/luxfi/cryptobit/internal/queue"
	"github.com/luxfi/cryptobit/internal/storage"
	"github.com/luxfi/cryptobit/internal/worker"
)

type config struct {
	Workers      int    `long:"workers" default:"4" description:"number of jobs processed concurrently"`
	GateWorkers  int    `long:"gateworkers" default:"0" description:"gates evaluated concurrently per job (0 = GOMAXPROCS)"`
	RedisAddr    string `long:"redis" default:"localhost:6379" description:"Redis address"`
	RedisDB      int    `long:"redisdb" default:"0" description:"Redis database number"`
	Queue        string `long:"queue" default:"default" description:"queue name"`
	Storage      string `long:"storage" default:"/tmp/cryptobit-storage" description:"bitset storage path"`
	MetricsAddr  string `long:"metrics" default:":9090" description:"health and metrics address"`
	Backend      string `long:"backend" default:"sim" choice:"sim" choice:"tfhe" description:"homomorphic scheme"`
	Preset       string `long:"preset" description:"parameter preset of the backend"`
	KeyFile      string `long:"keyfile" description:"tfhe secret key file, created if missing"`
	SBox         string `long:"sbox" default:"circuit" choice:"circuit" choice:"lut" description:"S-box strategy"`
	AllowRefresh bool   `long:"allowrefresh" description:"decrypt and re-encrypt between rounds and for key switching"`
	LogLevel     string `long:"loglevel" default:"info" description:"log level, or SUBSYSTEM=level pairs"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var cfg config
	if _, err := flags.Parse(&cfg); err != nil {
		var flagErr *flags.Error
		if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
			return nil
		}
		return err
	}

	loggers, err := logging.Setup(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	log := loggers.Get(worker.Subsystem)

	log.Infof("AES worker starting: workers=%d backend=%s sbox=%s redis=%s storage=%s",
		cfg.Workers, cfg.Backend, cfg.SBox, cfg.RedisAddr, cfg.Storage)

	q, err := queue.NewRedisQueue(queue.RedisConfig{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	}, cfg.Queue)
	if err != nil {
		return fmt.Errorf("create queue: %w", err)
	}
	defer q.Close()

	store, err := storage.NewFileStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("create storage: %w", err)
	}

	// Only a refreshing worker holds the secret key.
	backendCfg := backend.Config{
		Name:    cfg.Backend,
		Preset:  cfg.Preset,
		KeyFile: cfg.KeyFile,
	}
	var (
		scheme he.PublicScheme
		holder cryptobit.KeyHolder
	)
	if cfg.AllowRefresh {
		full, err := backend.Open(backendCfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
		scheme, holder = full, full
		log.Warnf("Refresh enabled: worker holds the secret key")
	} else {
		scheme, err = backend.OpenPublic(backendCfg)
		if err != nil {
			return fmt.Errorf("open backend: %w", err)
		}
	}

	evalCtx, err := cryptobit.NewContext(scheme, cryptobit.Config{Workers: cfg.GateWorkers})
	if err != nil {
		return err
	}

	processor, err := worker.NewProcessor(evalCtx, store, holder, worker.Config{
		SBox:         cfg.SBox,
		AllowRefresh: cfg.AllowRefresh,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := worker.NewPool(cfg.Workers, q, processor)
	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start workers: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		success, failure := pool.Stats()
		fmt.Fprintf(w, "# HELP cryptobit_jobs_total Total AES jobs\n")
		fmt.Fprintf(w, "# TYPE cryptobit_jobs_total counter\n")
		fmt.Fprintf(w, "cryptobit_jobs_total{status=\"success\"} %d\n", success)
		fmt.Fprintf(w, "cryptobit_jobs_total{status=\"failure\"} %d\n", failure)
	})

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("Metrics server starting on %s", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	log.Infof("Received signal: %s", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Metrics server shutdown error: %v", err)
	}
	if err := pool.Stop(30 * time.Second); err != nil {
		log.Errorf("Worker pool shutdown error: %v", err)
	}

	log.Info("Shutdown complete")
	return nil
}
