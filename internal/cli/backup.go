package cli

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/backup"
)

// NewBackupCommand creates the backup command and its subcommands.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create and manage backup archives",
	}
	cmd.AddCommand(newBackupCreateCommand(rootOpts))
	cmd.AddCommand(newBackupListCommand(rootOpts))
	cmd.AddCommand(newBackupDeleteCommand(rootOpts))
	return cmd
}

func newBackupCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := backup.DefaultBackupOptions()
	var skipActivities bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Write a backup archive of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.IncludeActivities = !skipActivities
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				svc, err := do.Invoke[*backup.BackupService](i)
				if err != nil {
					return err
				}
				res, err := svc.Create(cmd.Context(), opts)
				if err != nil {
					return err
				}
				c := res.Counts
				return formatter(cmd, rootOpts).Success(res,
					fmt.Sprintf("Wrote %s (%d bytes)", res.Path, res.Size),
					fmt.Sprintf("Books: %d  Records: %d  Awarded badges: %d  Activities: %d",
						c.Books, c.Records, c.UserBadges, c.Activities),
					"SHA-256 "+res.Checksum,
				)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", "", "archive path (default: a timestamped file in <data-path>/backups)")
	cmd.Flags().BoolVar(&skipActivities, "no-activities", false, "leave the activity feed out of the archive")
	return cmd
}

func newBackupListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archives in the backup directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				svc, err := do.Invoke[*backup.BackupService](i)
				if err != nil {
					return err
				}
				backups, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				lines := make([]string, 0, len(backups))
				for _, b := range backups {
					lines = append(lines, fmt.Sprintf("%s\t%d\t%s", b.ID, b.Size, b.CreatedAt.Format("2006-01-02 15:04:05")))
				}
				if len(lines) == 0 {
					lines = append(lines, "No backups")
				}
				if backups == nil {
					backups = []backup.BackupInfo{}
				}
				return formatter(cmd, rootOpts).Success(backups, lines...)
			})
		},
	}
}

func newBackupDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an archive from the backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				svc, err := do.Invoke[*backup.BackupService](i)
				if err != nil {
					return err
				}
				if err := svc.Delete(cmd.Context(), args[0]); err != nil {
					return fmt.Errorf("delete %s: %w", args[0], err)
				}
				return formatter(cmd, rootOpts).Success(map[string]string{"deleted": args[0]},
					"Deleted "+args[0])
			})
		},
	}
}
