// Package server wires the vault service together: it resolves the
// operational account, connects to the ledger and the content store, opens
// the pin journal and runs the HTTP API next to the gRPC health service
// until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dmitrijs2005/memoire/internal/cryptox"
	"github.com/dmitrijs2005/memoire/internal/filex"
	"github.com/dmitrijs2005/memoire/internal/logging"
	"github.com/dmitrijs2005/memoire/internal/server/config"
	"github.com/dmitrijs2005/memoire/internal/server/httpapi"
	"github.com/dmitrijs2005/memoire/internal/server/ledger"
	"github.com/dmitrijs2005/memoire/internal/server/pinlog"
	"github.com/dmitrijs2005/memoire/internal/server/store"
	"github.com/dmitrijs2005/memoire/internal/server/vault"

	gs "github.com/dmitrijs2005/memoire/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	ledger   *ledger.Client
	store    store.Store
	journal  pinlog.Journal
	service  *vault.Service
	archiver *vault.Archiver
}

func operator(c *config.Config) (common.Address, error) {
	key := []byte(c.OperatorKey)
	if c.NeedsOperatorPrompt() {
		k, err := config.PromptOperatorKey(os.Stderr)
		if err != nil {
			return common.Address{}, fmt.Errorf("read operational key: %w", err)
		}
		key = k
	}
	return cryptox.OperatorAddress(key, c.OperatorAddress)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.New(os.Stdout, c.LogLevel)

	if !common.IsHexAddress(c.ContractAddress) {
		return nil, fmt.Errorf("invalid contract address %q", c.ContractAddress)
	}

	op, err := operator(c)
	if err != nil {
		return nil, err
	}

	backend, err := ledger.Dial(ctx, c.LedgerRPCURL)
	if err != nil {
		return nil, fmt.Errorf("ledger init error: %w", err)
	}
	lc, err := ledger.New(backend, ledger.Options{
		Contract:            common.HexToAddress(c.ContractAddress),
		Operator:            op,
		ReceiptTimeout:      c.ReceiptTimeout,
		ReceiptPollInterval: c.ReceiptPollInterval,
	})
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("content store init error: %w", err)
	}

	var journal pinlog.Journal = pinlog.NewMemory()
	if c.DatabaseDSN != "" {
		j, err := pinlog.Open(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		journal = j
	}

	// An empty spool dir means os.TempDir.
	spool := c.SpoolDir
	if spool != "" {
		if spool, err = filex.EnsureSubdDir(spool); err != nil {
			return nil, fmt.Errorf("spool dir: %w", err)
		}
	}

	svc := vault.NewService(st, lc, logger,
		vault.WithMaxFileSize(c.MaxFileSize),
		vault.WithJournal(journal),
	)
	arch := vault.NewArchiver(lc, st, spool, logger)

	logger.Info(ctx, "app configured",
		"operator", op.Hex(),
		"contract", c.ContractAddress,
		"store", c.StoreBackend,
	)

	return &App{
		config:   c,
		logger:   logger,
		ledger:   lc,
		store:    st,
		journal:  journal,
		service:  svc,
		archiver: arch,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) probes() []gs.Probe {
	probes := []gs.Probe{{
		Name: "ledger",
		Check: func(ctx context.Context) error {
			_, err := app.ledger.BlockNumber(ctx)
			return err
		},
	}}
	if p, ok := app.store.(store.Pinger); ok {
		probes = append(probes, gs.Probe{Name: "store", Check: p.Ping})
	}
	return probes
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.config.HealthProbeInterval, app.probes()...)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	h := httpapi.NewHandler(app.service, app.archiver, app.logger, app.config.MaxFileSize)
	s := httpapi.NewHTTPServer(app.config.EndpointAddrHTTP, h.Router(), app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.journal.Close(); err != nil {
		app.logger.Error(context.Background(), "close pin journal", "error", err)
	}
	app.logger.Info(context.Background(), "app stopped")
}
