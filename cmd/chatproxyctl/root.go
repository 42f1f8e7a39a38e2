package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chatproxyctl",
	Short: "ChatGPT proxy server and tools",
	Long: `A small HTTP server that forwards chat requests to the OpenAI API and
keeps the conversations in MongoDB.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
