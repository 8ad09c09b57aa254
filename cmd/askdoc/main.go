package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath   string
	documentPath string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "askdoc",
	Short: "Ask questions about a document by typing or speaking",
	Long: `askdoc indexes a plain-text document and answers questions about it
with a chat model that looks up the relevant passages on demand.

Type a question, or enter "v" to ask by voice. "exit" or "quit" ends the session.`,
	SilenceUsage: true,
	RunE:         runChat,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: config/$ENV.yaml)")
	rootCmd.PersistentFlags().StringVar(&documentPath, "document", "", "document to index (overrides document.path)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
