package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/di/providers"
)

// NewOutboxCommand creates the outbox command.
func NewOutboxCommand(rootOpts *RootOptions) *cobra.Command {
	var flush bool

	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Show undelivered activity entries",
		Long: `Report how many activity entries are waiting in the outbox. With --flush
they are delivered to the feed before the command exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				box, err := do.Invoke[*providers.OutboxHandle](i)
				if err != nil {
					return err
				}
				before, err := box.Pending()
				if err != nil {
					return err
				}
				result := map[string]int{"pending": before}
				lines := []string{fmt.Sprintf("Pending: %d", before)}

				if flush && before > 0 {
					if err := box.Flush(cmd.Context()); err != nil {
						return err
					}
					after, err := box.Pending()
					if err != nil {
						return err
					}
					result["delivered"] = before - after
					result["pending"] = after
					lines = append(lines, fmt.Sprintf("Delivered: %d, still pending: %d", before-after, after))
				}
				return formatter(cmd, rootOpts).Success(result, lines...)
			})
		},
	}

	cmd.Flags().BoolVar(&flush, "flush", false, "deliver pending entries now")
	return cmd
}
