package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/slashgw/internal/config"
	"github.com/mattjoyce/slashgw/internal/interaction"
	"github.com/mattjoyce/slashgw/internal/log"
	"github.com/mattjoyce/slashgw/internal/storage"
)

const publishTimeout = 30 * time.Second

func runPublish(args []string) int {
	fs := flag.NewFlagSet("publish", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	log.Setup(cfg.Service.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	var audit *storage.AuditLog
	if cfg.State.Audit {
		db, err := storage.OpenSQLite(ctx, cfg.State.Path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
			return 1
		}
		defer db.Close()
		audit = storage.NewAuditLog(db)
	}

	registry, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build command registry: %v\n", err)
		return 1
	}
	p, err := newPublisher(cfg, audit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure publisher: %v\n", err)
		return 1
	}

	defs := registry.Definitions()
	if err := p.Publish(ctx, defs); err != nil {
		fmt.Fprintf(os.Stderr, "Publish failed: %v\n", err)
		return 1
	}
	fmt.Printf("Published %d commands to %s\n", len(defs), p.Endpoint())
	return 0
}

func runCommandsList(args []string) int {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output the definitions as published")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}

	registry, err := newRegistry()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build command registry: %v\n", err)
		return 1
	}

	if *jsonOut {
		data, err := json.MarshalIndent(registry.Definitions(), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
			return 1
		}
		fmt.Println(string(data))
		return 0
	}

	renderCommandTable(os.Stdout, registry.Definitions())
	return 0
}

var (
	tableBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)
	tableHeader = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#61AFEF"))
	tableDim    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
)

// renderCommandTable prints one row per command with its options summarised.
func renderCommandTable(w io.Writer, defs []interaction.CommandDefinition) {
	headers := []string{"NAME", "DESCRIPTION", "OPTIONS"}
	rows := make([][]string, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, []string{"/" + def.Name, def.Description, describeOptions(def.Options)})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	renderRow := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			parts[i] = style.Width(widths[i]).Render(cell)
		}
		return strings.Join(parts, "  ")
	}

	lines := []string{renderRow(headers, tableHeader)}
	for _, row := range rows {
		lines = append(lines, renderRow(row, lipgloss.NewStyle()))
	}
	if len(rows) == 0 {
		lines = append(lines, tableDim.Render("no commands registered"))
	}

	fmt.Fprintln(w, tableBorder.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}

func describeOptions(opts []interaction.OptionDefinition) string {
	if len(opts) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(opts))
	for _, o := range opts {
		s := fmt.Sprintf("%s:%s", o.Name, optionTypeName(o.Type))
		if o.Required {
			s += " (required)"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func optionTypeName(t interaction.OptionType) string {
	switch t {
	case interaction.OptionSubCommand:
		return "subcommand"
	case interaction.OptionSubCommandGroup:
		return "subcommand_group"
	case interaction.OptionString:
		return "string"
	case interaction.OptionInteger:
		return "integer"
	case interaction.OptionBoolean:
		return "boolean"
	case interaction.OptionUser:
		return "user"
	case interaction.OptionChannel:
		return "channel"
	case interaction.OptionRole:
		return "role"
	default:
		return fmt.Sprintf("type%d", int(t))
	}
}
