package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/service"
)

// ReconcileResult is the output of the reconcile command.
type ReconcileResult struct {
	Books         int   `json:"books"`
	Readers       int   `json:"readers"`
	BadgesAwarded int   `json:"badges_awarded"`
	Failures      int   `json:"failures"`
	DurationMs    int64 `json:"duration_ms"`
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	var reader string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute ratings, goals, challenges and badges",
		Long: `Re-derive every book rating and every reader's goal counts, challenge
progress and badges from the stored records. Streaks are left alone.

With --reader only that reader is reconciled and book ratings are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				reconciler, err := do.Invoke[*service.Reconciler](i)
				if err != nil {
					return err
				}
				out := formatter(cmd, rootOpts)

				if reader != "" {
					n, err := reconciler.ReconcileReader(cmd.Context(), reader)
					if err != nil {
						return fmt.Errorf("reconcile %s: %w", reader, err)
					}
					return out.Success(ReconcileResult{Readers: 1, BadgesAwarded: n},
						fmt.Sprintf("Reconciled reader %s, %d badge(s) awarded", reader, n))
				}

				report, err := reconciler.ReconcileAll(cmd.Context())
				if err != nil {
					return err
				}
				res := ReconcileResult{
					Books:         report.Books,
					Readers:       report.Readers,
					BadgesAwarded: report.BadgesAwarded,
					Failures:      report.Failures,
					DurationMs:    report.Duration.Milliseconds(),
				}
				return out.Success(res,
					fmt.Sprintf("Books:          %d", res.Books),
					fmt.Sprintf("Readers:        %d", res.Readers),
					fmt.Sprintf("Badges awarded: %d", res.BadgesAwarded),
					fmt.Sprintf("Failures:       %d", res.Failures),
					fmt.Sprintf("Took:           %s", report.Duration),
				)
			})
		},
	}

	cmd.Flags().StringVar(&reader, "reader", "", "reconcile a single reader")
	return cmd
}
