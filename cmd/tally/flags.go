package main

import (
	"github.com/urfave/cli/v2"
)

const EnvVarPrefix = "TALLY"

func prefixEnvVar(name string) []string {
	return []string{EnvVarPrefix + "_" + name}
}

var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to config file (default: ./.tally.yaml, then the user config dir)",
		EnvVars: prefixEnvVar("CONFIG"),
	}
	InputFlag = &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Read go test -json from this file instead of stdin",
		EnvVars: prefixEnvVar("INPUT"),
	}
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Usage:   "Output format: auto, json, plain, table, terminal",
		EnvVars: prefixEnvVar("FORMAT"),
	}
	ThemeFlag = &cli.StringFlag{
		Name:    "theme",
		Usage:   "Terminal theme: default, orca, mono",
		EnvVars: prefixEnvVar("THEME"),
	}
	EnvironmentFlag = &cli.StringFlag{
		Name:    "env",
		Usage:   "Environment label appended to every test's full name (e.g. 'linux/amd64')",
		EnvVars: prefixEnvVar("ENV"),
	}
	UpdateFlag = &cli.BoolFlag{
		Name:    "update",
		Usage:   "Report passing tests as update results (golden-file update runs)",
		EnvVars: prefixEnvVar("UPDATE"),
	}
	LiveFlag = &cli.BoolFlag{
		Name:    "live",
		Usage:   "Show the running tally while tests execute (TTY only)",
		EnvVars: prefixEnvVar("LIVE"),
	}
	MetricsAddrFlag = &cli.StringFlag{
		Name:    "metrics-addr",
		Usage:   "Serve Prometheus metrics on this address while the run is in progress",
		EnvVars: prefixEnvVar("METRICS_ADDR"),
	}
	FailOnFlag = &cli.StringSliceFlag{
		Name:    "fail-on",
		Usage:   "Categories that make the run exit 1 when non-zero",
		EnvVars: prefixEnvVar("FAIL_ON"),
	}
	LogLevelFlag = &cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level: trace, debug, info, warn, error",
		EnvVars: prefixEnvVar("LOG_LEVEL"),
	}
)

var Flags = []cli.Flag{
	ConfigFlag,
	InputFlag,
	FormatFlag,
	ThemeFlag,
	EnvironmentFlag,
	UpdateFlag,
	LiveFlag,
	MetricsAddrFlag,
	FailOnFlag,
	LogLevelFlag,
}
