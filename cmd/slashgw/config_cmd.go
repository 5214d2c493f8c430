package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/slashgw/internal/config"
)

func runConfigCheck(args []string) int {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration invalid: %v\n", err)
		return 1
	}

	source := cfg.SourcePath
	if source == "" {
		source = "(environment only)"
	}
	fmt.Println("Configuration valid.")
	fmt.Printf("  source:      %s\n", source)
	fmt.Printf("  listen:      %s%s\n", cfg.Server.Listen, cfg.Server.EntryPath)
	fmt.Printf("  api:         %s\n", cfg.Platform.APIBaseURL)
	fmt.Printf("  application: %s\n", cfg.Platform.ApplicationID)
	fmt.Printf("  guild:       %s\n", cfg.Platform.GuildID)
	if cfg.State.Audit {
		fmt.Printf("  audit:       %s\n", cfg.State.Path)
	} else {
		fmt.Println("  audit:       disabled")
	}
	return 0
}

func runConfigLock(args []string) int {
	fs := flag.NewFlagSet("lock", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	path := *configPath
	if path == "" {
		discovered, err := config.DiscoverConfigPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to discover config: %v\n", err)
			return 1
		}
		path = discovered
	}

	checksumPath, err := config.Lock(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to lock config: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s\n", checksumPath)
	return 0
}
