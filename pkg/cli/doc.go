// Package cli holds the terminal plumbing shared by avatar commands.
//
// This package includes:
//   - Output formatting (YAML, JSON, table, raw)
//   - Request file loading (YAML/JSON) for commands that take structured input
//   - Human readable byte, duration and timestamp formatting
//   - The per-user application directory layout
//
// Example usage:
//
//	cli.Output(sessions, cli.OutputOptions{
//	    Format: cli.FormatTable,
//	    Writer: cmd.OutOrStdout(),
//	})
package cli
