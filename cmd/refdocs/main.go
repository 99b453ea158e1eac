package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/refdocs/internal/errors"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"refdocs.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Generate struct {
		Promote bool `help:"Promote this version to current after generating, archiving the previous current tree"`
		Metrics bool `help:"Print a metrics snapshot after the run"`
	} `cmd:"" help:"Generate the documentation tree for the configured version"`

	Promote struct {
		Tag string `arg:"" help:"Version tag to make current"`
	} `cmd:"" help:"Make a version current and convert superseded trees to shell pages"`

	Lint struct {
		Tree bool `help:"Also check the generated tree for broken links"`
	} `cmd:"" help:"Check sidecar files and generated pages for problems"`

	Watch struct {
		Promote bool `help:"Promote after each regeneration"`
	} `cmd:"" help:"Watch the metadata artifact and config, regenerating on change"`

	Versions struct{} `cmd:"" help:"List registered documentation versions"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Write a starter configuration file"`
}

func main() {
	ctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	var err error
	switch ctx.Command() {
	case "generate":
		err = runGenerate(CLI.Config, CLI.Generate.Promote, CLI.Generate.Metrics)
	case "promote <tag>":
		err = runPromote(CLI.Config, CLI.Promote.Tag)
	case "lint":
		err = runLint(CLI.Config, CLI.Lint.Tree)
	case "watch":
		err = runWatch(CLI.Config, CLI.Watch.Promote)
	case "versions":
		err = runVersions(CLI.Config)
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	default:
		err = fmt.Errorf("unknown command: %s", ctx.Command())
	}

	if err != nil {
		slog.Error("command failed", "error", errors.UserMessage(err))
		os.Exit(errors.ExitCode(err))
	}
}
