package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viant/afs"
	"github.com/viant/signoff/internal/clock"
	"github.com/viant/signoff/model"
	"github.com/viant/signoff/service/approval"
	"github.com/viant/signoff/service/event"
	"go.uber.org/zap"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <draft.yaml>...",
		Short: "Check request drafts against the workflow rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			config, err := root.config(ctx)
			if err != nil {
				return err
			}
			fs := afs.New()
			failed := 0
			for _, URL := range args {
				data, err := fs.DownloadWithURL(ctx, URL)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", URL, err)
				}
				if err = validateDraft(ctx, config.Workflow, data); err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", URL, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", URL)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d drafts invalid", failed, len(args))
			}
			return nil
		},
	}
}

// validateDraft creates the draft on a throwaway engine, so every rule the
// engine enforces on creation applies.
func validateDraft(ctx context.Context, config *approval.Config, data []byte) error {
	draft, err := model.DecodeDraft(data)
	if err != nil {
		return err
	}
	srv, err := approval.New(
		approval.WithConfig(config),
		approval.WithClock(clock.NewManual(clock.Now())),
		approval.WithEventSink(&event.Recorder{}),
		approval.WithLogger(zap.NewNop()),
	)
	if err != nil {
		return err
	}
	defer srv.Close()
	_, err = srv.CreateRequest(ctx, draft)
	return err
}
