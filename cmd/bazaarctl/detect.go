package main

import (
	"fmt"
	"strings"

	"bazaar/internal/domain/environment"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type detectFlags struct {
	userAgent string
	globals   []string
}

func newDetectCmd() *cobra.Command {
	flags := &detectFlags{}

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Print the runtime classification for a user agent",
		Example: `  bazaarctl detect --ua "Mozilla/5.0 Line/13.1.0"
  bazaarctl detect --ua "Mozilla/5.0" --global __wxjs_environment=miniprogram`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			signals, err := flags.signals()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), environment.Detect(signals))

			return nil
		},
	}

	cmd.Flags().StringVar(&flags.userAgent, "ua", "", "User agent string")
	cmd.Flags().StringSliceVar(&flags.globals, "global", nil, "Runtime global as name=value (repeatable)")

	return cmd
}

func (f *detectFlags) signals() (environment.Signals, error) {
	globals, err := parseGlobals(f.globals)
	if err != nil {
		return environment.Signals{}, err
	}

	return environment.Signals{UserAgent: f.userAgent, Globals: globals}, nil
}

func parseGlobals(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	globals := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("invalid --global %q, want name=value", pair)
		}
		globals[name] = value
	}

	return globals, nil
}
