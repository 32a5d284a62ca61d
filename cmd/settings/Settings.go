// Package settings prints the configuration the archive would start with.
package settings

import (
	"fmt"
	"io"

	"github.com/bsv-blockchain/teranode-archive/settings"
	"github.com/ordishs/gocore"
)

func CmdSettings(w io.Writer, version string, commit string) {
	stats := gocore.Config().Stats()
	_, _ = fmt.Fprintf(w, "STATS\n%s\nVERSION\n-------\n%s (%s)\n\n", stats, version, commit)

	printSettings(w, settings.NewSettings())
}

func printSettings(w io.Writer, tSettings *settings.Settings) {
	_, _ = fmt.Fprintf(w, "SETTINGS\n--------\n")
	_, _ = fmt.Fprintf(w, "network:               %s\n", tSettings.ChainCfgParams.Name)
	_, _ = fmt.Fprintf(w, "genesis:               %s\n", tSettings.ChainCfgParams.GenesisHash)
	_, _ = fmt.Fprintf(w, "blockchain store:      %s\n", tSettings.BlockChain.StoreURL.Redacted())
	_, _ = fmt.Fprintf(w, "state store:           %s\n", tSettings.State.StoreURL)
	_, _ = fmt.Fprintf(w, "http listen address:   %s\n", tSettings.Archive.HTTPListenAddress)
	_, _ = fmt.Fprintf(w, "api prefix:            %s\n", tSettings.Archive.APIPrefix)
	_, _ = fmt.Fprintf(w, "centrifuge disabled:   %t\n", tSettings.Archive.CentrifugeDisable)
	_, _ = fmt.Fprintf(w, "workers:               %d\n", tSettings.Archive.Workers)
	_, _ = fmt.Fprintf(w, "max queued tasks:      %d\n", tSettings.Archive.MaxQueuedTasks)
	_, _ = fmt.Fprintf(w, "event timeout:         %s\n", tSettings.Archive.EventTimeout)
	_, _ = fmt.Fprintf(w, "rate limit:            %d\n", tSettings.Archive.RateLimit)
	_, _ = fmt.Fprintf(w, "tracing enabled:       %t\n", tSettings.Tracing.Enabled)
	_, _ = fmt.Fprintf(w, "health check port:     %d\n", tSettings.HealthCheckPort)
}
