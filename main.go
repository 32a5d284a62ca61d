package main

import (
	"fmt"
	"os"

	"github.com/bsv-blockchain/teranode-archive/cmd/archive"
	cmdSettings "github.com/bsv-blockchain/teranode-archive/cmd/settings"
	"github.com/urfave/cli/v2"
)

// Name used by build script for the binaries. (Please keep on single line)
const progname = "teranode-archive"

// Version & commit strings injected at build with -ldflags -X...
var (
	version string
	commit  string
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    progname,
		Usage:   "serves finalized and unfinalized chain data through the archive query operations",
		Version: fmt.Sprintf("%s (%s)", version, commit),
		Commands: []*cli.Command{
			{
				Name:            "archive",
				Usage:           "start the archive service, remaining args are passed to the daemon (e.g. -wait_for_postgres=1)",
				SkipFlagParsing: true,
				Action: func(c *cli.Context) error {
					archive.RunDaemon(progname, version, commit, append([]string{"-archive=1"}, c.Args().Slice()...))
					return nil
				},
			},
			{
				Name:  "settings",
				Usage: "print the resolved settings and exit",
				Action: func(c *cli.Context) error {
					cmdSettings.CmdSettings(c.App.Writer, version, commit)
					return nil
				},
			},
		},
	}
}
