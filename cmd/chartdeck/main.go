package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor     bool
	sessionFlag string
)

var rootCmd = &cobra.Command{
	Use:           "chartdeck",
	Short:         "Build chart reports from spreadsheets and export them as PDF or slides",
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "disable colored output")
	rootCmd.PersistentFlags().StringVar(&sessionFlag, "session", "", "session id (shared default session when empty)")

	rootCmd.AddCommand(startCmd, stopCmd, statusCmd)
	rootCmd.AddCommand(uploadCmd, datasetsCmd, chartsCmd, reportCmd)
	rootCmd.AddCommand(exportCmd, exportsCmd, clearCmd, inspectCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}

// stdout is where command results go; tests swap it.
var stdout io.Writer = os.Stdout

func outf(format string, args ...any) {
	fmt.Fprintf(stdout, format, args...)
}
