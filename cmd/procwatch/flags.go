package main

import (
	"flag"
	"time"

	"github.com/desertwitch/procwatch/internal/configuration"
)

// cliFlags holds the command-line flags. Flags explicitly set on the command
// line override the values of the configuration file.
type cliFlags struct {
	configFile    string
	workers       int
	displayLimit  int
	consumerMode  string
	pollInterval  time.Duration
	hashAlgorithm string
	procRoot      string
	ui            bool
	debug         bool
	cpuProfile    string
	memProfile    string
}

// registerFlags defines the command-line flags on the [flag.FlagSet].
func registerFlags(fs *flag.FlagSet) *cliFlags {
	f := &cliFlags{}

	fs.StringVar(&f.configFile, "config", "", "path to an env-style configuration file")
	fs.IntVar(&f.workers, "workers", 0, "amount of consumers fingerprinting processes")
	fs.IntVar(&f.displayLimit, "limit", 0, "amount of processes printed after enumeration")
	fs.StringVar(&f.consumerMode, "mode", "", "consumer mode: blocking or polling")
	fs.DurationVar(&f.pollInterval, "poll", 0, "sleep between empty polls in polling mode")
	fs.StringVar(&f.hashAlgorithm, "hash", "", "fingerprint algorithm: sha256 or blake3")
	fs.StringVar(&f.procRoot, "proc", "", "mount point of the procfs")
	fs.BoolVar(&f.ui, "ui", false, "enable the UI")
	fs.BoolVar(&f.debug, "debug", false, "enable debug logging")
	fs.StringVar(&f.cpuProfile, "cpuprofile", "", "write cpu profile to file")
	fs.StringVar(&f.memProfile, "memprofile", "", "write memory profile to this file")

	return f
}

// apply overrides the configuration with all flags set on the [flag.FlagSet].
// The [flag.FlagSet] needs to be parsed before.
func (f *cliFlags) apply(fs *flag.FlagSet, config *configuration.AppConfiguration) {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "workers":
			config.Workers = f.workers
		case "limit":
			config.DisplayLimit = f.displayLimit
		case "mode":
			config.ConsumerMode = f.consumerMode
		case "poll":
			config.PollInterval = f.pollInterval
		case "hash":
			config.HashAlgorithm = f.hashAlgorithm
		case "proc":
			config.ProcRoot = f.procRoot
		case "ui":
			config.UI = f.ui
		}
	})
}
