package main

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/generate"
	"git.home.luguber.info/inful/refdocs/internal/lint"
	"git.home.luguber.info/inful/refdocs/internal/metadata"
	"git.home.luguber.info/inful/refdocs/internal/sidecar"
)

func runLint(cfgPath string, includeTree bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	graph, _, err := metadata.LoadGraph(cfg.Metadata)
	if err != nil {
		return err
	}

	linter := &lint.Linter{
		Graph: graph,
		Store: sidecar.NewStore(cfg.Sidecar.Directory, cfg.Version),
	}
	if includeTree {
		linter.TreeRoot = filepath.Join(cfg.Output.Directory, generate.VersionsFolder, cfg.Version)
	}

	issues, err := linter.Run()
	if err != nil {
		return err
	}

	for _, issue := range issues {
		fmt.Println(issue.String())
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d lint issue(s) found", len(issues))
	}
	fmt.Println("no issues found")
	return nil
}
