// Package daemon wires the stores and services selected on the command line and runs them
// under a servicemanager until shutdown.
package daemon

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/teranode-archive/errors"
	"github.com/bsv-blockchain/teranode-archive/services/archive"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/retry"
	"github.com/bsv-blockchain/teranode-archive/util/servicemanager"
	"github.com/bsv-blockchain/teranode-archive/util/spawner"
	"github.com/ordishs/gocore"
)

var pprofRegistered atomic.Bool

type Daemon struct {
	Ctx           context.Context
	doneCh        chan struct{}
	closeDoneOnce sync.Once

	stopCh         chan struct{} // closed once all services have stopped
	closeStopOnce  sync.Once
	serverMu       sync.Mutex
	server         *http.Server
	ServiceManager *servicemanager.ServiceManager
	loggerFactory  func(serviceName string) ulogger.Logger
	stores         *Stores
	appCount       int
}

func New(opts ...Option) *Daemon {
	d := &Daemon{
		Ctx:    context.Background(),
		doneCh: make(chan struct{}),
		stopCh: make(chan struct{}),
		loggerFactory: func(serviceName string) ulogger.Logger {
			return ulogger.New(serviceName)
		},
		stores: &Stores{},
	}

	for _, opt := range opts {
		opt(d)
	}

	d.ServiceManager = servicemanager.NewServiceManager(d.Ctx, d.loggerFactory("ServiceManager"))

	return d
}

// Stop asks a running daemon to shut down and waits up to timeout (default 10s) for its services to stop.
func (d *Daemon) Stop(timeout ...time.Duration) error {
	d.closeDoneOnce.Do(func() { close(d.doneCh) })

	if d.appCount == 0 {
		d.closeStopOnce.Do(func() { close(d.stopCh) })
		return nil
	}

	shutdownTimeout := 10 * time.Second
	if len(timeout) > 0 {
		shutdownTimeout = timeout[0]
	}

	select {
	case <-d.stopCh:
		return nil
	case <-time.After(shutdownTimeout):
		d.loggerFactory("Daemon").Warnf("Timeout waiting for services to stop after %v", shutdownTimeout)
		return errors.NewProcessingError("timeout waiting for services to stop after %v", shutdownTimeout)
	}
}

// Start runs the selected services and blocks until they end or Stop is called. readyCh, when given,
// is closed once every service has signalled it is ready.
func (d *Daemon) Start(logger ulogger.Logger, args []string, tSettings *settings.Settings, readyCh ...chan struct{}) {
	defer d.closeStopOnce.Do(func() { close(d.stopCh) })

	if d.shouldStart("wait_for_postgres", args) {
		if err := waitForPostgresToStart(logger, tSettings); err != nil {
			logger.Errorf("error waiting for postgres: %v", err)
			return
		}
	}

	sm := d.ServiceManager

	if err := d.startServices(logger, tSettings, sm, args); err != nil {
		logger.Errorf("error starting services: %v", err)
		sm.ForceShutdown()
		d.closeDoneOnce.Do(func() { close(d.doneCh) })
	}

	if len(readyCh) > 0 && readyCh[0] != nil {
		go func() {
			if err := sm.WaitForServiceToBeReady(sm.Ctx); err != nil {
				logger.Warnf("services did not become ready: %v", err)
				return
			}

			close(readyCh[0])
		}()
	}

	if d.appCount > 0 {
		d.startHealthServer(logger, tSettings, sm)
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- sm.Wait()
	}()

	select {
	case err := <-waitErr:
		if err != nil {
			logger.Errorf("services failed: %v", err)
		}
	case <-d.doneCh:
		logger.Infof("daemon shutdown requested")

		sm.ForceShutdown()

		logger.Infof("daemon shutdown waiting for services to finish")

		if err := <-waitErr; err != nil {
			logger.Errorf("error during service shutdown: %v", err)
		}
	}

	d.serverMu.Lock()
	if d.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("Error shutting down health check server: %v", err)
		}
		cancel()
	}
	d.serverMu.Unlock()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	d.stores.Close(closeCtx, logger)
	closeCancel()

	logger.Infof("daemon shutdown completed")
}

func (d *Daemon) startHealthServer(logger ulogger.Logger, tSettings *settings.Settings, sm *servicemanager.ServiceManager) {
	if tSettings.HealthCheckPort <= 0 {
		return
	}

	healthFunc := func(liveness bool) func(http.ResponseWriter, *http.Request) {
		return func(w http.ResponseWriter, r *http.Request) {
			status, details, _ := sm.HealthHandler(r.Context(), liveness)

			w.WriteHeader(status)
			_, _ = w.Write([]byte(details))
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthFunc(false))
	mux.HandleFunc("/health/readiness", healthFunc(false))
	mux.HandleFunc("/health/liveness", healthFunc(true))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", tSettings.HealthCheckPort),
		Handler:           mux,
		ReadHeaderTimeout: 20 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	d.serverMu.Lock()
	d.server = server
	d.serverMu.Unlock()

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Error starting health check server: %v", err)
		}
	}()

	logger.Infof("Health check endpoint listening on http://localhost:%d/health", tSettings.HealthCheckPort)
}

// startServices adds the services enabled on the command line or in the config to sm.
func (d *Daemon) startServices(logger ulogger.Logger, tSettings *settings.Settings, sm *servicemanager.ServiceManager, args []string) error {
	createLogger := d.loggerFactory

	help := d.shouldStart("help", args)
	startArchive := d.shouldStart("Archive", args)

	if help || d.appCount == 0 {
		printUsage()
		return nil
	}

	if tSettings.ProfilerAddr != "" && !pprofRegistered.Load() {
		pprofRegistered.Store(true)

		go func() {
			logger.Infof("Profiler listening on http://%s/debug/pprof", tSettings.ProfilerAddr)

			gocore.RegisterStatsHandlers()

			server := &http.Server{
				Addr:              tSettings.ProfilerAddr,
				ReadHeaderTimeout: 20 * time.Second,
				ReadTimeout:       60 * time.Second,
				WriteTimeout:      60 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			logger.Errorf("profiler stopped: %v", server.ListenAndServe())
		}()
	}

	if startArchive {
		blockchainStore, err := d.stores.GetBlockchainStore(createLogger("bcsql"), tSettings)
		if err != nil {
			return err
		}

		stateStore, err := d.stores.GetStateStore(createLogger("state"), tSettings)
		if err != nil {
			return err
		}

		taskSpawner := spawner.New(createLogger("spwn"), tSettings.Archive.Workers, tSettings.Archive.MaxQueuedTasks)

		if err = sm.AddService("Archive", archive.NewServer(
			createLogger("arch"),
			tSettings,
			blockchainStore,
			stateStore,
			taskSpawner,
		)); err != nil {
			return err
		}
	}

	return nil
}

func (d *Daemon) shouldStart(app string, args []string) bool {
	// See if the app is enabled in the command line
	cmdArg := fmt.Sprintf("-%s=1", strings.ToLower(app))
	for _, cmd := range args {
		if cmd == cmdArg {
			d.appCount++
			return true
		}
	}

	// See if the app is disabled in the command line
	cmdArg = fmt.Sprintf("-%s=0", strings.ToLower(app))
	for _, cmd := range args {
		if cmd == cmdArg {
			return false
		}
	}

	for _, cmd := range args {
		if cmd == "-all=0" {
			return false
		}
	}

	// If the app was not specified on the command line, see if it is enabled in the config
	if gocore.Config().GetBool(fmt.Sprintf("start%s", app)) {
		d.appCount++
		return true
	}

	return false
}

func printUsage() {
	fmt.Println("usage: teranode-archive archive [options]")
	fmt.Println("where options are:")
	fmt.Println("")
	fmt.Println("    -archive=<1|0>")
	fmt.Println("          whether to start the archive service")
	fmt.Println("")
	fmt.Println("    -all=0")
	fmt.Println("          disable every service not explicitly enabled")
	fmt.Println("")
	fmt.Println("    -wait_for_postgres=1")
	fmt.Println("          wait for the postgres blockchain store to accept connections first")
	fmt.Println("")
}

func waitForPostgresToStart(logger ulogger.Logger, tSettings *settings.Settings) error {
	storeURL := tSettings.BlockChain.StoreURL
	if storeURL == nil || storeURL.Scheme != "postgres" {
		return nil
	}

	address := storeURL.Host
	if storeURL.Port() == "" {
		address = net.JoinHostPort(storeURL.Hostname(), "5432")
	}

	logger.Infof("Waiting for PostgreSQL to be ready at %s", address)

	_, err := retry.Retry(context.Background(), logger, func() (struct{}, error) {
		conn, err := net.DialTimeout("tcp", address, time.Second)
		if err != nil {
			return struct{}{}, err
		}

		_ = conn.Close()

		return struct{}{}, nil
	},
		retry.WithRetryCount(20),
		retry.WithExponentialBackoff(),
		retry.WithBackoffDurationType(250*time.Millisecond),
		retry.WithMaxBackoff(5*time.Second),
		retry.WithMessage("PostgreSQL is not up yet"),
	)
	if err != nil {
		return errors.NewStorageError("timed out waiting for PostgreSQL to start", err)
	}

	logger.Infof("PostgreSQL is up - ready to go!")

	return nil
}
