package main

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/crm/internal/api"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Show which provider credentials are configured",
	RunE: func(cmd *cobra.Command, _ []string) error {
		printKeys(cmd.OutOrStdout(), cfg.KeyStatus())
		return nil
	},
}

func printKeys(out io.Writer, status map[string]bool) {
	names := make([]string, 0, len(status))
	for name := range status {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		state := "missing"
		if status[name] {
			state = "configured"
		}
		fmt.Fprintf(out, "%-12s %s\n", name, state)
	}
}

var (
	tokenOwner string
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for local API use",
	RunE: func(cmd *cobra.Command, _ []string) error {
		token, err := api.IssueToken(cfg.Auth.JWTSecret, tokenOwner, tokenTTL)
		if err != nil {
			return eris.Wrap(err, "issue token")
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenOwner, "owner", "", "owner id to embed as the subject (required)")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("owner")
	rootCmd.AddCommand(keysCmd, tokenCmd)
}
