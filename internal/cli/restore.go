package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/backup"
	"github.com/listenupapp/pagebound-server/internal/service"
)

// RestoreCommandResult is the output of the restore command.
type RestoreCommandResult struct {
	*backup.RestoreResult
	Reconciled *ReconcileResult `json:"reconciled,omitempty"`
	Indexed    int              `json:"indexed"`
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	var opts backup.RestoreOptions

	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Load a backup archive into an empty data directory",
		Long: `Import every entity from a backup archive, then recompute ratings, goals,
challenge progress and badges and rebuild the journal search index.

The target database must hold no books and no readers. With --dry-run the
archive is decoded and counted but nothing is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				restorer, err := do.Invoke[*backup.RestoreService](i)
				if err != nil {
					return err
				}

				check, err := restorer.Validate(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !check.Valid {
					return fmt.Errorf("invalid backup %s: %v", args[0], check.Errors)
				}

				restored, err := restorer.Restore(cmd.Context(), args[0], opts)
				if err != nil {
					return err
				}
				res := RestoreCommandResult{RestoreResult: restored}
				lines := []string{
					fmt.Sprintf("Imported: %v", restored.Imported),
					fmt.Sprintf("Skipped:  %v", restored.Skipped),
					fmt.Sprintf("Errors:   %d", len(restored.Errors)),
				}
				if opts.DryRun {
					return formatter(cmd, rootOpts).Success(res, append(lines, "Dry run, nothing written")...)
				}

				reconciler, err := do.Invoke[*service.Reconciler](i)
				if err != nil {
					return err
				}
				report, err := reconciler.ReconcileAll(cmd.Context())
				if err != nil {
					return fmt.Errorf("reconcile after restore: %w", err)
				}
				res.Reconciled = &ReconcileResult{
					Books:         report.Books,
					Readers:       report.Readers,
					BadgesAwarded: report.BadgesAwarded,
					Failures:      report.Failures,
					DurationMs:    report.Duration.Milliseconds(),
				}

				rebuilder, err := do.Invoke[*service.JournalRebuilder](i)
				if err != nil {
					return err
				}
				if res.Indexed, err = rebuilder.Rebuild(cmd.Context()); err != nil {
					return fmt.Errorf("rebuild journal index: %w", err)
				}

				lines = append(lines,
					fmt.Sprintf("Reconciled %d books and %d readers", report.Books, report.Readers),
					fmt.Sprintf("Indexed %d journal entries", res.Indexed),
				)
				return formatter(cmd, rootOpts).Success(res, lines...)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "decode the archive without writing")
	return cmd
}
