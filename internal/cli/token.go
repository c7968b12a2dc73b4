package cli

import (
	"time"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"github.com/listenupapp/pagebound-server/internal/auth"
)

// TokenResult is the output of the mint-token command.
type TokenResult struct {
	ReaderID  string    `json:"reader_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewMintTokenCommand creates the mint-token command.
func NewMintTokenCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mint-token <reader-id>",
		Short: "Issue an access token for a reader",
		Long: `Issue a PASETO access token for the given reader id, signed with the
server's key. Reader identity is external to Pagebound; this is how tokens
are handed to clients in development and by an upstream identity service.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, rootOpts, func(i do.Injector) error {
				tokens, err := do.Invoke[*auth.TokenService](i)
				if err != nil {
					return err
				}
				token, err := tokens.Mint(args[0])
				if err != nil {
					return err
				}
				return formatter(cmd, rootOpts).Success(TokenResult{
					ReaderID:  args[0],
					Token:     token,
					ExpiresAt: time.Now().Add(tokens.TTL()).UTC(),
				}, token)
			})
		},
	}
}
