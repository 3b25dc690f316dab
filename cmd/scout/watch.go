package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd(sess *session) *cobra.Command {
	o := &overrides{}
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch [topics...]",
		Short: "Run the topics now and then on a fixed interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if every <= 0 {
				return errors.New("--every must be positive")
			}
			o.apply(cmd, sess.cfg)
			topics, err := topicsFrom(args, sess.cfg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := newApp(ctx, sess.cfg, sess.logger)
			if err != nil {
				return err
			}
			defer a.close()

			ticker := time.NewTicker(every)
			defer ticker.Stop()

			for {
				sess.logger.Info("starting round", "topics", len(topics))
				outcomes := a.runOnce(ctx, topics)
				if err := writeOutcomes(cmd.OutOrStdout(), o.format, outcomes); err != nil {
					return err
				}
				sess.logger.Info("round finished", "next", time.Now().Add(every).Format(time.RFC3339))

				select {
				case <-ctx.Done():
					sess.logger.Info("watch stopped")
					return nil
				case <-ticker.C:
				}
			}
		},
	}
	o.register(cmd)
	cmd.Flags().DurationVar(&every, "every", 6*time.Hour, "interval between rounds")
	return cmd
}
