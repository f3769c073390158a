package main

import (
	"github.com/spf13/cobra"

	"github.com/rhuss/postsmith/pkg/config"
	"github.com/rhuss/postsmith/pkg/debug"
)

// cli holds state shared by all subcommands.
type cli struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "postsmith",
		Short: "Generate LinkedIn posts from live web search results",
		Long: `postsmith searches the web for a topic, summarizes the results with a
language model and writes a LinkedIn post from the summary.

Credentials come from the configuration file or the environment
(SERPAPI_KEY, GROQ_API_KEY or their POSTSMITH_* equivalents).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			debug.Init(cfg.Logging.Debug, cfg.Logging.Level, cfg.Logging.Format)
			c.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to the YAML configuration file")

	root.AddCommand(
		newGenerateCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return root
}
