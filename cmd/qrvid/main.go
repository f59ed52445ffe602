// Package main provides the CLI entry point for qrvid.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const (
	appName    = "qrvid"
	appVersion = "0.3.1"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Transport byte payloads through QR-code videos",
		Long:          "qrvid encodes arbitrary files into videos of QR-code frames and decodes them back, losslessly.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newRoundtripCmd(),
		newBenchCmd(),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, appVersion)
		},
	}
}
