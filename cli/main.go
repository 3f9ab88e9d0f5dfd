package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"io"
	"ncflag"
	"os"
	"time"
)

var version = "unknown"

const lockTimeout = 5 * time.Second

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string
	rootCmd := &cobra.Command{
		Use:           "ncflag",
		Short:         "Inspect and edit bitwise flag variables.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetOutput(stderr)
			log.SetLevel(level)
			return nil
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warning", "Log level (debug, info, warning, error, fatal)")

	rootCmd.AddCommand(
		newInspectCommand(),
		newShowFlagsCommand(),
		newDescribeCommand(),
		newCreateCommand(),
		newSetCommand(),
		newReduceCommand(),
	)
	return rootCmd
}

// openRead opens path read-only, as every inspecting command does.
func openRead(path string) (*ncflag.Dataset, error) {
	return ncflag.Open(path, 0644, &ncflag.Options{ReadOnly: true, Timeout: lockTimeout})
}

func openWrite(path string, compression ncflag.CompressAlgorithm) (*ncflag.Dataset, error) {
	return ncflag.Open(path, 0644, &ncflag.Options{Timeout: lockTimeout, Compression: compression})
}
