// Package archive is the entry point of the archive daemon.
package archive

import (
	"context"
	_ "net/http/pprof" //nolint:gosec // Import for pprof, only enabled via profilerAddr
	"strings"
	"time"

	"github.com/bsv-blockchain/teranode-archive/daemon"
	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/bsv-blockchain/teranode-archive/tracing"
	"github.com/bsv-blockchain/teranode-archive/ulogger"
	"github.com/bsv-blockchain/teranode-archive/util/servicemanager"
	"github.com/ordishs/gocore"
)

// RunDaemon starts the daemon with args and blocks until it shuts down.
func RunDaemon(progname, version, commit string, args []string) {
	gocore.SetInfo(progname, version, commit)

	// starts the unix domain socket used to change settings at runtime
	gocore.Log(progname)

	gocore.AddAppPayloadFn("CONFIG", func() interface{} {
		return gocore.Config().GetAll()
	})

	tSettings := settings.NewSettings()

	logger := ulogger.New(progname, ulogger.WithLevel(tSettings.LogLevel), ulogger.WithLoggerType(tSettings.LoggerType))

	stats := gocore.Config().Stats()
	logger.Infof("STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	if tSettings.Tracing.Enabled {
		if err := tracing.InitTracer(tSettings, version, commit); err != nil {
			logger.Warnf("failed to initialize tracer: %v", err)
		}

		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := tracing.ShutdownTracer(shutdownCtx); err != nil {
				logger.Warnf("failed to shut down tracer: %v", err)
			}
		}()
	}

	d := daemon.New(daemon.WithLoggerFactory(func(serviceName string) ulogger.Logger {
		return ulogger.New(serviceName, ulogger.WithLevel(tSettings.LogLevel), ulogger.WithLoggerType(tSettings.LoggerType))
	}))

	d.Start(logger, args, tSettings)

	if listeners := servicemanager.GetListenerInfos(); len(listeners) > 0 {
		logger.Infof("listeners were:\n  %s", strings.Join(listeners, "\n  "))
	}
}
