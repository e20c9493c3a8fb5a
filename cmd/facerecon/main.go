// facerecon - 3D face reconstruction from BFM coefficients.
//
// Decodes 257-wide coefficient vectors into posed, lit face meshes and renders
// them through the software rasterizer.
//
// Commands:
//
//	render     - Render coefficient vectors to PNG images
//	landmarks  - Print the 68 projected landmarks per sample
//	shape      - Export a posed, lit face mesh as GLB
//	preview    - Interactive terminal preview (spring-damped pose)
//	mkmodel    - Write the built-in synthetic face model as GLB
//	mkcoeffs   - Write random or zero coefficient vectors as YAML
//	config     - Write the effective configuration as YAML
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/taigrr/facerecon/internal/logger"
)

type command struct {
	summary string
	run     func(args []string) error
}

var commands = map[string]command{
	"render":    {"Render coefficient vectors to PNG images", runRender},
	"landmarks": {"Print the 68 projected landmarks per sample", runLandmarks},
	"shape":     {"Export a posed, lit face mesh as GLB", runShape},
	"preview":   {"Interactive terminal preview", runPreview},
	"mkmodel":   {"Write the built-in synthetic face model as GLB", runMkModel},
	"mkcoeffs":  {"Write random or zero coefficient vectors as YAML", runMkCoeffs},
	"config":    {"Write the effective configuration as YAML", runConfig},
}

func usage() {
	fmt.Fprintf(os.Stderr, "facerecon - 3D face reconstruction from BFM coefficients\n\n")
	fmt.Fprintf(os.Stderr, "Usage: facerecon <command> [options]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(os.Stderr, "\nRun 'facerecon <command> -h' for command options.\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	name := os.Args[1]
	cmd, ok := commands[name]
	if !ok {
		if name == "-h" || name == "--help" || name == "help" {
			usage()
			return
		}
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		usage()
		os.Exit(1)
	}

	// Console logging until the command loads its own configuration.
	if err := logger.Init("info", ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err := cmd.run(os.Args[2:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", name), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}
