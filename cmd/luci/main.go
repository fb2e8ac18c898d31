package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keshon/luci/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "luci",
		Short:         "Emotion and memory engine for a Discord persona",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSlice("env-file", nil, "dotenv files to load before reading the environment")
	root.AddCommand(newServeCmd(), newDeltaCmd(), newBandsCmd(), newGuildConfigCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "luci:", err)
		os.Exit(1)
	}
}
