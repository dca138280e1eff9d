package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/diogo/samarth/internal/render"
	"github.com/diogo/samarth/internal/server"
	"github.com/diogo/samarth/internal/transcript"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web chat",
		Long: `Serve the Samarth AI chat page. Replies stream to every open page as
they arrive; only one question is answered at a time.

The html policy controls how model output reaches the page: "trusted"
passes it through untouched, "sanitized" keeps only formatting and table
tags.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&a.addrFlag, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	cmd.Flags().StringVar(&a.htmlPolicyFlag, "html-policy", "", "HTML policy: trusted or sanitized")

	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	addr := a.addrFlag
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	policyName := a.htmlPolicyFlag
	if policyName == "" {
		policyName = a.cfg.Server.HTMLPolicy
	}
	policy, err := render.ParseHTMLPolicy(policyName)
	if err != nil {
		return err
	}

	model := a.model()
	asker, err := a.deps.NewAsker(a.cfg, model)
	if err != nil {
		fmt.Fprintln(a.deps.Stderr, formatErrorMessage(err, "Failed to initialize"))
		return err
	}

	store := transcript.New(asker, transcript.WithGreeting(transcript.Greeting))

	fmt.Fprintf(a.deps.Stderr, "Samarth AI web chat on http://%s\n", addr)
	return a.deps.Serve(ctx, store, server.Options{
		Addr:      addr,
		ModelName: model.Name,
		Policy:    policy,
	})
}
