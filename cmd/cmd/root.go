package cmd

import (
	"github.com/kregerl/diskprobe/internal/env"
	"github.com/spf13/cobra"
)

func Execute() error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - disk image partition and MFT inspection tool",
	}

	rootCmd.AddCommand(DefinePartitionsCommand())
	rootCmd.AddCommand(DefineMftCommand())
	rootCmd.AddCommand(DefineTimestompCommand())

	return rootCmd.Execute()
}
