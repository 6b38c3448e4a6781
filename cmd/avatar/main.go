// Package main is the entry point for the avatar CLI.
//
// Usage:
//
//	avatar [flags] <command> [subcommand] [args]
//
// Commands:
//
//	audio    - Normalize, validate and inspect audio files
//	db       - Database maintenance (migrate)
//	turn     - Record and read conversation turns
//	session  - List recent sessions
//	voice    - Manage voice profiles
//	version  - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/avatar/cmd/avatar/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
