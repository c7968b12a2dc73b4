// Package cli implements pagebound-admin, the operator tool for a Pagebound
// data directory.
package cli

import (
	"fmt"
	"slices"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/di"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	DataPath string
	EnvFile  string
	LogLevel string
	Format   string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for pagebound-admin.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "pagebound-admin",
		Short: "Pagebound maintenance tool",
		Long: `Maintenance commands for a Pagebound data directory.

Commands open the same database, outbox and search index as the server. The
outbox is single-writer: stop the server before running commands that record
activity (seed).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.DataPath, "data-path", "", "data directory (default: $DATA_PATH or ~/.pagebound)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", ".env", "path to .env file")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewMintTokenCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))

	return cmd
}

// configArgs turns the global flags into server config flags.
func (o *RootOptions) configArgs() []string {
	args := []string{"--env-file", o.EnvFile}
	if o.DataPath != "" {
		args = append(args, "--data-path", o.DataPath)
	}
	if o.LogLevel != "" {
		args = append(args, "--log-level", o.LogLevel)
	}
	return args
}

// withContainer runs fn against a container built from the global flags and
// shuts it down afterwards. Logs go to the command's stderr.
func withContainer(cmd *cobra.Command, opts *RootOptions, fn func(do.Injector) error) (err error) {
	injector := di.NewToolContainer(opts.configArgs(), cmd.ErrOrStderr())
	defer func() {
		if shutdownErr := injector.Shutdown(); shutdownErr != nil && err == nil {
			err = shutdownErr
		}
	}()
	return fn(injector)
}

func formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}
}
