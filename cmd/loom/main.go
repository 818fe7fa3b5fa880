package main

import (
	"fmt"
	"os"
)

const usageText = `loom drives a document-drafting pipeline from the terminal.

Usage:
  loom [command] [flags]

Commands:
  ui        attach the terminal UI to a pipeline session (default)
  sessions  list pipeline sessions
  version   print the build version
  help      show help

UI flags:
  --session <id>   attach to an existing session
  --title <text>   title for a new pipeline run
  --posting <path> job posting file; starts a new pipeline run
  --resume <path>  current resume text for a new pipeline run

Examples:
  loom
  loom ui --session 4f1c2b
  loom ui --title "Staff SRE" --posting posting.txt --resume resume.md
  loom sessions
`

func printUsage() {
	fmt.Fprint(os.Stderr, usageText)
}

func main() {
	args := os.Args[1:]

	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	commands := buildCommands(wiring)

	name := "ui"
	if len(args) > 0 {
		switch args[0] {
		case "-h", "--help", "help":
			printUsage()
			return
		}
		if runner, ok := commands[args[0]]; ok {
			exitOnErr(args[0], runner.Run(args[1:]), wiring.stderr)
			return
		}
		if len(args[0]) > 0 && args[0][0] != '-' {
			fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
			printUsage()
			os.Exit(2)
		}
	}

	exitOnErr(name, commands[name].Run(args), wiring.stderr)
}
