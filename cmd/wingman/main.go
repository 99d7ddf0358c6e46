package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var noColor bool

var rootCmd = &cobra.Command{
	Use:     "wingman",
	Short:   "AI conversation strategist: openers, replies, intent analysis, transcreation",
	Version: version,
	Long: `wingman runs a local conversation strategy service backed by the
Gemini API. It generates conversation openers, suggests replies,
assesses the other party's intent, and transcreates messages between
English and Traditional Chinese.

Start the server with 'wingman start', then use the assist commands or
point an MCP host at 'wingman mcp'.`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(openersCmd)
	rootCmd.AddCommand(replyCmd)
	rootCmd.AddCommand(intentCmd)
	rootCmd.AddCommand(transcreateCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(targetCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
