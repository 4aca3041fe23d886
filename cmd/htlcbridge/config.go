package main

import (
	"os"
	"path/filepath"

	"github.com/iov-one/htlc/errors"
	"github.com/jessevdk/go-flags"
	"github.com/urfave/cli"
)

const (
	defaultConfigFilename = "htlcbridge.conf"
	defaultDBFilename     = "bridge.db"
	defaultLogLevel       = "info"
)

var defaultDataDir = filepath.Join(".", ".htlcbridge")

// Config holds the process configuration. Values are read from the ini
// config file and overridden by the command line flags.
type Config struct {
	DataDir    string `long:"datadir" description:"Directory holding the bridge database and the keys."`
	DebugLevel string `long:"debuglevel" description:"Logging level {debug, info, error, none}"`
	Genesis    string `long:"genesis" description:"Genesis file used when initializing the chain."`
	Debug      bool   `long:"debug" description:"Include the full error details in failed transactions."`
}

// DefaultConfig returns all default values for the Config struct.
func DefaultConfig() Config {
	return Config{
		DataDir:    defaultDataDir,
		DebugLevel: defaultLogLevel,
	}
}

// DBPath is the location of the bolt database.
func (c Config) DBPath() string {
	return filepath.Join(c.DataDir, defaultDBFilename)
}

// KeysDir is the location of the signing keys.
func (c Config) KeysDir() string {
	return filepath.Join(c.DataDir, "keys")
}

// loadConfig reads the config file, if present, and applies the global
// flags on top of it.
func loadConfig(ctx *cli.Context) (Config, error) {
	config := DefaultConfig()

	path := ctx.GlobalString("configfile")
	if path == "" {
		dir := ctx.GlobalString("datadir")
		if dir == "" {
			dir = defaultDataDir
		}
		path = filepath.Join(dir, defaultConfigFilename)
	}
	err := flags.IniParse(path, &config)
	switch {
	case os.IsNotExist(err) && !ctx.GlobalIsSet("configfile"):
		// The default file is optional.
	case err != nil:
		return config, errors.Wrapf(errors.ErrInput, "config file %s: %s", path, err)
	}

	if ctx.GlobalIsSet("datadir") {
		config.DataDir = ctx.GlobalString("datadir")
	}
	if ctx.GlobalIsSet("debuglevel") {
		config.DebugLevel = ctx.GlobalString("debuglevel")
	}
	if ctx.GlobalIsSet("debug") {
		config.Debug = ctx.GlobalBool("debug")
	}
	return config, nil
}
