package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattjoyce/manimcp/internal/config"
	"github.com/mattjoyce/manimcp/internal/doctor"
)

func runDoctor(args []string) int {
	if hasHelpFlag(args) {
		fmt.Println("Usage: manimcp doctor [--config PATH] [--format human|json]")
		return 0
	}

	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file")
	format := fs.String("format", "human", "Output format: human or json")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	result := doctor.New(cfg).Validate()

	switch *format {
	case "json":
		out, err := doctor.FormatJSON(result)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to encode result: %v\n", err)
			return 1
		}
		fmt.Println(out)
	case "human":
		source := cfg.SourcePath
		if source == "" {
			source = "built-in defaults"
		}
		fmt.Printf("Config: %s\n", source)
		fmt.Print(doctor.FormatHuman(result))
	default:
		fmt.Fprintf(os.Stderr, "Unknown format: %s\n", *format)
		return 1
	}

	if !result.Valid {
		return 1
	}
	return 0
}
