package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fangeriz/gazette"
	"github.com/fangeriz/gazette/sqlite"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Config   *Config
	DB       *sqlite.DB
	Logger   *slog.Logger
	Registry *gazette.Registry
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  string `short:"c" env:"GAZETTE_CONFIG" help:"Path to the configuration file"`
	Verbose bool   `short:"v" help:"Enable debug logging"`

	Check CheckCmd `cmd:"" help:"Check one gazette source for new publications"`
	Run   RunCmd   `cmd:"" help:"Check all configured sources"`
	List  ListCmd  `cmd:"" help:"List configured sources"`
	Runs  RunsCmd  `cmd:"" help:"Show recent runs for a source"`
}

// CheckCmd is the "check" subcommand.
type CheckCmd struct {
	Country  string   `arg:"" help:"Country code of the source (e.g. es, fr, kw)"`
	Date     string   `short:"d" help:"Gazette date as YYYY-MM-DD (default: today)"`
	Keywords []string `short:"k" help:"Only notify about items matching a keyword (repeatable)"`
	DryRun   bool     `help:"Print the change set instead of sending email"`
}

// RunCmd is the "run" subcommand.
type RunCmd struct {
	Date   string `short:"d" help:"Gazette date as YYYY-MM-DD (default: today)"`
	DryRun bool   `help:"Print change sets instead of sending email"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// RunsCmd is the "runs" subcommand.
type RunsCmd struct {
	Country string `arg:"" help:"Country code of the source"`
	Limit   int    `short:"n" default:"20" help:"Number of runs to show"`
}
