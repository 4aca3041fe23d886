// Command htlcbridge runs the initiating side of a hash time locked
// bridge as a local single process chain. Each command executes one
// transaction and commits it as a new block.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[htlcbridge] %v\n", err)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Name = appName
	app.Usage = "lock value under hash time locks for a counterparty chain"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "configfile",
			Usage: "path to the ini configuration file",
		},
		cli.StringFlag{
			Name:  "datadir",
			Value: defaultDataDir,
			Usage: "directory holding the database and the keys",
		},
		cli.StringFlag{
			Name:  "debuglevel",
			Value: defaultLogLevel,
			Usage: "logging level {debug, info, error, none}",
		},
		cli.BoolFlag{
			Name:  "debug",
			Usage: "include the full error details in failed transactions",
		},
		cli.Int64Flag{
			Name:  "height",
			Usage: "execute at a later block height instead of the next one, skipping the blocks in between",
		},
	}
	app.Commands = []cli.Command{
		initCommand, addressCommand, secretCommand,
		fundCommand, depositCommand, approveCommand, transferCommand,
		initializeCommand, setCounterpartyCommand, transferOwnershipCommand,
		initiateCommand, completeCommand, refundCommand, withdrawCommand,
		balanceCommand, showCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fatal(err)
	}
}
