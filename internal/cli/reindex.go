package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/service"
)

// NewReindexCommand creates the reindex command.
func NewReindexCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the journal search index from the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				rebuilder, err := do.Invoke[*service.JournalRebuilder](i)
				if err != nil {
					return err
				}
				n, err := rebuilder.Rebuild(cmd.Context())
				if err != nil {
					return err
				}
				return formatter(cmd, rootOpts).Success(map[string]int{"documents": n},
					fmt.Sprintf("Indexed %d journal entries", n))
			})
		},
	}
}
