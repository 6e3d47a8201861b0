package main

import (
	"github.com/spf13/cobra"
)

// runFlags override configuration for one invocation.
type runFlags struct {
	moviePages int
	showPages  int
	outputDir  string
}

func newRootCommand() *cobra.Command {
	var flags runFlags

	rootCmd := &cobra.Command{
		Use:           "ingestion",
		Short:         "TMDB catalog ingestion and normalization",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().IntVar(&flags.moviePages, "movie-pages", 0, "Popular movie pages to walk (overrides TMDB_MOVIE_PAGES)")
	rootCmd.PersistentFlags().IntVar(&flags.showPages, "show-pages", 0, "Popular show pages to walk (overrides TMDB_SHOW_PAGES)")
	rootCmd.PersistentFlags().StringVarP(&flags.outputDir, "output-dir", "o", "", "Directory for per-table JSON files (overrides OUTPUT_DIR)")

	rootCmd.AddCommand(newRunCommand(&flags))
	rootCmd.AddCommand(newServeCommand(&flags))
	return rootCmd
}
