package main

import (
	"fmt"

	"git.home.luguber.info/inful/refdocs/internal/config"
	"git.home.luguber.info/inful/refdocs/internal/versioning"
)

func runVersions(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	state, err := versioning.LoadState(cfg.Output.Directory)
	if err != nil {
		return err
	}
	if len(state.Versions) == 0 {
		fmt.Println("no versions registered")
		return nil
	}

	for _, v := range state.Versions {
		marker := " "
		if v.Current {
			marker = "*"
		}
		fmt.Printf("%s %s  generated %s\n", marker, v.Tag, v.GeneratedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}
