package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	if len(cliArgs) < 1 {
		printUsage()
		return 1
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	// --- NOUNS ---
	case "system":
		return runSystemNoun(args)
	case "commands":
		return runCommandsNoun(args)
	case "config":
		return runConfigNoun(args)

	// --- ROOT ALIASES ---
	case "start":
		return runStart(args)
	case "publish":
		return runPublish(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: slashgw version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render version JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	fmt.Printf("slashgw %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}
	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	commit := strings.TrimSpace(gitCommit)
	if commit == "" || commit == "unknown" {
		commit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if commit != "" {
		info.Commit = shortenCommit(commit)
	}

	built := strings.TrimSpace(buildDate)
	if built == "" || built == "unknown" {
		built = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if t, err := time.Parse(time.RFC3339Nano, built); err == nil {
		info.BuildTime = t.UTC().Format(time.RFC3339)
	}
	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`slashgw - Signed slash-command webhook gateway

Usage:
  slashgw <noun> <action> [flags]

Core Resources (Nouns):
  system    Gateway lifecycle
  commands  Slash command definitions
  config    Configuration and integrity

System Commands:
  system start        Publish commands, then serve interactions in foreground

Commands Commands:
  commands publish    Register the built-in commands with the platform
  commands list       Show the built-in command definitions

Config Commands:
  config check        Validate configuration and integrity
  config lock         Authorize current config (write .checksums)

Root Aliases:
  start               Same as 'system start'
  publish             Same as 'commands publish'

General:
  --version           Show version information
  version             Show version information
  help                Show this help message

Use 'slashgw <noun> help' for resource-specific flags.
`)
}

// --- NOUN DISPATCHERS ---

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printSystemNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printSystemNounHelp(os.Stdout)
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			printSystemStartHelp()
			return 0
		}
		return runStart(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runCommandsNoun(args []string) int {
	if len(args) < 1 {
		printCommandsNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printCommandsNounHelp(os.Stdout)
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "publish":
		if hasHelpFlag(actionArgs) {
			printCommandsPublishHelp()
			return 0
		}
		return runPublish(actionArgs)
	case "list":
		if hasHelpFlag(actionArgs) {
			printCommandsListHelp()
			return 0
		}
		return runCommandsList(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown commands action: %s\n", action)
		return 1
	}
}

func runConfigNoun(args []string) int {
	if len(args) < 1 {
		printConfigNounHelp(os.Stderr)
		return 1
	}
	if isHelpToken(args[0]) {
		printConfigNounHelp(os.Stdout)
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "check":
		if hasHelpFlag(actionArgs) {
			printConfigCheckHelp()
			return 0
		}
		return runConfigCheck(actionArgs)
	case "lock":
		if hasHelpFlag(actionArgs) {
			printConfigLockHelp()
			return 0
		}
		return runConfigLock(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown config action: %s\n", action)
		return 1
	}
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

func printSystemNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: slashgw system <action>")
	fmt.Fprintln(w, "Actions: start")
}

func printCommandsNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: slashgw commands <action> [flags]")
	fmt.Fprintln(w, "Actions: publish, list")
}

func printConfigNounHelp(w *os.File) {
	fmt.Fprintln(w, "Usage: slashgw config <action> [flags]")
	fmt.Fprintln(w, "Actions: check, lock")
}

func printSystemStartHelp() {
	fmt.Println("Usage: slashgw system start [--config PATH] [--skip-publish]")
	fmt.Println("Publish the command definitions, then serve interactions in the foreground.")
	fmt.Println("A rejected publish exits with status 1 before the listener binds.")
}

func printCommandsPublishHelp() {
	fmt.Println("Usage: slashgw commands publish [--config PATH]")
	fmt.Println("Replace the guild's slash commands with the built-in definitions.")
}

func printCommandsListHelp() {
	fmt.Println("Usage: slashgw commands list [--json]")
	fmt.Println("Show the built-in command definitions.")
}

func printConfigCheckHelp() {
	fmt.Println("Usage: slashgw config check [--config PATH]")
	fmt.Println("Load the configuration exactly as 'system start' would and report problems.")
}

func printConfigLockHelp() {
	fmt.Println("Usage: slashgw config lock [--config PATH]")
	fmt.Println("Hash the config file with BLAKE3 and write .checksums beside it.")
}
