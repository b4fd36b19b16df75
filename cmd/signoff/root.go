package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/viant/signoff"
)

type rootOptions struct {
	configURL string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "signoff",
		Short:         "Approval workflow tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configURL, "config", "c", "", "service configuration (YAML, any afs URL)")
	cmd.AddCommand(newValidateCmd(opts), newSimulateCmd(opts))
	return cmd
}

func (o *rootOptions) config(ctx context.Context) (*signoff.Config, error) {
	if o.configURL == "" {
		return signoff.DefaultConfig(), nil
	}
	return signoff.LoadConfig(ctx, o.configURL)
}
