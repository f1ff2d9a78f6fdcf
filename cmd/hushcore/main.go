package main

import (
	"fmt"
	"os"

	"github.com/hushtab/hushcore/cmd/hushcore/commands"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "analyze":
		err = commands.AnalyzeCommand(os.Args[2:])
	case "evaluate":
		err = commands.EvaluateCommand(os.Args[2:])
	case "detector":
		err = commands.DetectorCommand(os.Args[2:])
	case "serve":
		err = commands.ServeCommand(os.Args[2:])
	case "version":
		err = commands.VersionCommand(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`hushcore %s - Ad-Mute Detection Engine

Usage:
  hushcore <command> [options]

Commands:
  analyze    Replay a diagnostic bundle and print the detection timeline
  evaluate   Grade detection against a bundle's ground-truth markers
  detector   List and inspect signal detectors
  serve      Start the HTTP/WebSocket server for the extension
  version    Show version

Examples:
  hushcore analyze session.json
  hushcore analyze session.json.zst --config weights.yaml
  hushcore evaluate session.json --json
  hushcore detector list
  hushcore serve --port 8080 --websocket

`, commands.GetVersion())
}
