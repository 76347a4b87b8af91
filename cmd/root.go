// Package cmd implements the command-line interface.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farithjhg/agentic-ai-scraper-crawler/cmd/common"
	"github.com/farithjhg/agentic-ai-scraper-crawler/cmd/scrape"
	"github.com/farithjhg/agentic-ai-scraper-crawler/cmd/serve"
)

// version is set at build time with -ldflags.
var version = "dev"

var (
	cfgFile string
	debug   bool

	rootCmd = &cobra.Command{
		Use:   "scraper",
		Short: "An LLM-powered web crawler",
		Long: `A bounded web crawler that follows pagination and outbound links and
converts page content into typed, validated records using a language
model.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scraper version %s\n", version)
		},
	})

	newDeps := func() (*common.Deps, error) {
		return common.NewDeps(cfgFile, debug)
	}
	rootCmd.AddCommand(scrape.Command(newDeps))
	rootCmd.AddCommand(serve.Command(newDeps))
}
