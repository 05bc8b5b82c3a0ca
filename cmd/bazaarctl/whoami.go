package main

import (
	"encoding/json"
	"io"

	"bazaar/internal/client/api"
	"bazaar/internal/domain/entity"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	var server, token string

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Resolve the current user for a bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := api.New(server, api.WithBearer(token))
			if err != nil {
				return errors.Wrap(err, "failed to create api client")
			}

			user, err := client.Me(cmd.Context())
			if err != nil {
				return errors.Wrap(err, "failed to resolve current user")
			}

			return printUserTo(cmd.OutOrStdout(), user)
		},
	}

	cmd.Flags().StringVar(&server, "server", "http://localhost:8080", "Server base URL")
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")

	return cmd
}

// printUserTo writes the user as indented JSON. A guest prints as null.
func printUserTo(out io.Writer, user *entity.CurrentUser) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(user); err != nil {
		return errors.Wrap(err, "failed to print user")
	}

	return nil
}
