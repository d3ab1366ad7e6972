package main

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v3"
)

var versionCommand = &cli.Command{
	Name:  "version",
	Usage: "Print version information",
	Action: func(ctx context.Context, command *cli.Command) error {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("version: unknown (no build info)")
			return nil
		}

		fmt.Printf("version: %s\n", info.Main.Version)
		fmt.Printf("go: %s\n", info.GoVersion)

		var commit, buildTime string
		var dirty bool
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				commit = setting.Value
			case "vcs.time":
				buildTime = setting.Value
			case "vcs.modified":
				dirty = setting.Value == "true"
			}
		}
		if commit != "" {
			if dirty {
				commit += " (dirty)"
			}
			fmt.Printf("commit: %s\n", commit)
		}
		if buildTime != "" {
			fmt.Printf("built: %s\n", buildTime)
		}
		return nil
	},
}
