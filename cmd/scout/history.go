package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/scout/internal/news"
	"github.com/FranksOps/scout/internal/storage"
)

func newHistoryCmd(sess *session) *cobra.Command {
	var (
		topic  string
		failed bool
		since  time.Duration
		limit  int
		offset int
		format string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show stored topic outcomes, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openBackend(ctx, sess.cfg.Storage)
			if err != nil {
				return err
			}
			if store == nil {
				return errors.New("history needs a storage backend (storage.backend)")
			}
			defer store.Close()

			f := storage.Filter{Topic: topic, Limit: limit, Offset: offset}
			if cmd.Flags().Changed("failed") {
				f.Failed = &failed
			}
			if since > 0 {
				t := time.Now().Add(-since)
				f.Since = &t
			}

			records, err := store.Query(ctx, f)
			if err != nil {
				return err
			}
			outcomes := make([]news.TopicOutcome, 0, len(records))
			for _, r := range records {
				outcomes = append(outcomes, r.Outcome())
			}
			return writeOutcomes(cmd.OutOrStdout(), format, outcomes)
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "only this topic (case-insensitive)")
	cmd.Flags().BoolVar(&failed, "failed", false, "only failed (true) or only non-failed (false) outcomes")
	cmd.Flags().DurationVar(&since, "since", 0, "only outcomes newer than this, e.g. 24h")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum outcomes to show (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "skip this many outcomes")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, html or digest")
	return cmd
}
