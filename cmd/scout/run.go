package main

import (
	"github.com/spf13/cobra"

	"github.com/FranksOps/scout/internal/config"
)

// overrides are the pipeline flags shared by run and watch.
type overrides struct {
	limit    int
	strategy string
	window   string
	aiQuery  bool
	format   string
}

func (o *overrides) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&o.limit, "limit", 0, "maximum articles per topic")
	cmd.Flags().StringVar(&o.strategy, "strategy", "", "judge strategy: heuristic or ai")
	cmd.Flags().StringVar(&o.window, "window", "", "search date window, e.g. d3 or w1")
	cmd.Flags().BoolVar(&o.aiQuery, "ai-query", false, "add an ai-generated query to every plan")
	cmd.Flags().StringVarP(&o.format, "format", "f", "text", "output format: text, json, html or digest")
}

// apply copies flags the user actually set onto cfg.
func (o *overrides) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Judge.Limit = o.limit
	}
	if flags.Changed("strategy") {
		cfg.Judge.Strategy = o.strategy
	}
	if flags.Changed("window") {
		cfg.Retrieval.DateWindow = o.window
	}
	if flags.Changed("ai-query") {
		cfg.AI.QueryEnabled = o.aiQuery
	}
}

func newRunCmd(sess *session) *cobra.Command {
	o := &overrides{}
	cmd := &cobra.Command{
		Use:   "run [topics...]",
		Short: "Find news for each topic once and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			o.apply(cmd, sess.cfg)
			topics, err := topicsFrom(args, sess.cfg)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context(), sess.cfg, sess.logger)
			if err != nil {
				return err
			}
			defer a.close()

			outcomes := a.runOnce(cmd.Context(), topics)
			return writeOutcomes(cmd.OutOrStdout(), o.format, outcomes)
		},
	}
	o.register(cmd)
	return cmd
}
