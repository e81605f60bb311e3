// Package cmd provides the Movi CLI commands.
//
// Commands:
//   - serve: admin console and REST API over HTTP
//   - migrate: apply database migrations and exit
//   - seed: load the demo dataset and exit
//   - mcp: Model Context Protocol server on stdio
//
// Signal handling and graceful shutdown are implemented for the
// long-running commands via context cancellation.
package cmd

import (
	"fmt"
	"os"
)

// Execute is the main entry point for the Movi CLI.
func Execute() error {
	if len(os.Args) < 2 {
		runHelp()
		return nil
	}

	switch os.Args[1] {
	case "serve":
		return runServe()
	case "migrate":
		return runMigrate()
	case "seed":
		return runSeed()
	case "mcp":
		return runMCP()
	case "version", "--version", "-v":
		runVersion()
		return nil
	case "help", "--help", "-h":
		runHelp()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", os.Args[1])
	}
}

// runHelp displays the help message.
func runHelp() {
	fmt.Println("Movi - transit operations copilot")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  movi serve [addr]  Start the admin console and API (default: 127.0.0.1:8080)")
	fmt.Println("  movi migrate       Apply database migrations and exit")
	fmt.Println("  movi seed          Load the demo transit dataset and exit")
	fmt.Println("  movi mcp           Start the MCP server on stdio (for MCP clients)")
	fmt.Println("  movi version       Show version information")
	fmt.Println("  movi help          Show this help")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY       Required: OpenAI API key")
	fmt.Println("  MOVI_DATABASE_PATH   Optional: SQLite database path (default: movi.db)")
	fmt.Println("  MOVI_MODEL_NAME      Optional: chat model (default: gpt-4o-mini)")
	fmt.Println("  MOVI_LOG_LEVEL       Optional: debug, info, warn, error (default: info)")
	fmt.Println()
	fmt.Println("Configuration is also read from ~/.movi/config.yaml.")
}
