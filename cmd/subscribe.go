package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/botcheck"
	"github.com/JakeFAU/mcatedge-landing/internal/config"
	"github.com/JakeFAU/mcatedge-landing/internal/server"
	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

type subscribeOptions struct {
	name     string
	email    string
	formID   string
	token    string
	headless bool
	pageURL  string
}

func newSubscribeCmd() *cobra.Command {
	var opts subscribeOptions
	cmd := &cobra.Command{
		Use:   "subscribe",
		Short: "Run one waitlist signup from the terminal",
		Long: `Runs the signup pipeline once: validation, bot-check token, newsletter
submission and response interpretation. The token comes from --token or from
executing the challenge in headless Chrome against the landing page (--headless).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveEnv(cmd.Context())
			if err != nil {
				return err
			}
			return runSubscribe(cmd, rt, opts)
		},
	}
	cmd.Flags().StringVar(&opts.name, "name", "", "full name")
	cmd.Flags().StringVar(&opts.email, "email", "", "email address")
	cmd.Flags().StringVar(&opts.formID, "form", "waitlistForm", "form id to submit as")
	cmd.Flags().StringVar(&opts.token, "token", "", "pre-acquired bot-check token")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "acquire the bot-check token with headless Chrome")
	cmd.Flags().StringVar(&opts.pageURL, "page-url", "", "page that loads the challenge script (defaults to site.public_url)")
	cmd.MarkFlagsMutuallyExclusive("token", "headless")
	return cmd
}

func runSubscribe(cmd *cobra.Command, rt *cliEnv, opts subscribeOptions) error {
	forms := waitlist.DefaultForms()
	var form waitlist.Form
	for _, f := range forms {
		if f.ID == opts.formID {
			form = f
		}
	}
	if form.ID == "" {
		return fmt.Errorf("unknown form %q", opts.formID)
	}

	provider, closeProvider, err := buildProvider(rt.cfg, botcheck.NewFieldMap(forms), opts, rt.logger)
	if err != nil {
		return err
	}
	defer closeProvider()

	out := cmd.OutOrStdout()
	ctrl := waitlist.NewController(form, nil, waitlist.Deps{
		BotCheck:  provider,
		Client:    server.NewSubmitter(rt.cfg, rt.logger),
		View:      printView{w: out},
		Navigator: printNavigator{w: out},
		Logger:    rt.logger,
	}, waitlist.Config{
		RedirectPath:  rt.cfg.Waitlist.RedirectPath,
		RedirectDelay: rt.cfg.RedirectDelay(),
	})

	res := ctrl.Submit(cmd.Context(), waitlist.Input{Name: opts.name, Email: opts.email})
	switch res.State {
	case waitlist.StateSucceeded, waitlist.StateRedirecting:
		return nil
	default:
		if res.Err != nil {
			return fmt.Errorf("signup %s: %w", res.State, res.Err)
		}
		return fmt.Errorf("signup %s: %s", res.State, res.Message)
	}
}

func buildProvider(
	cfg config.Config,
	fields botcheck.FieldMap,
	opts subscribeOptions,
	logger *zap.Logger,
) (waitlist.BotCheckProvider, func(), error) {
	switch {
	case opts.token != "":
		return botcheck.NewStatic(opts.token, fields), func() {}, nil
	case opts.headless:
		pageURL := opts.pageURL
		if pageURL == "" {
			pageURL = cfg.Site.PublicURL
		}
		h, err := botcheck.NewHeadless(botcheck.HeadlessConfig{
			PageURL:           pageURL,
			SiteKey:           cfg.Recaptcha.SiteKey,
			Action:            cfg.Recaptcha.Action,
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Headless.UserAgent,
			NavigationTimeout: time.Duration(cfg.Headless.NavTimeoutSec) * time.Second,
		}, fields, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("headless bot check init: %w", err)
		}
		return h, h.Close, nil
	default:
		return nil, nil, errors.New("either --token or --headless is required")
	}
}

type printView struct {
	w io.Writer
}

func (v printView) Show(_ string, text string, kind waitlist.MessageKind) {
	fmt.Fprintf(v.w, "[%s] %s\n", kind, text)
}

type printNavigator struct {
	w io.Writer
}

func (n printNavigator) ScheduleRedirect(location string, delay time.Duration) {
	fmt.Fprintf(n.w, "redirect in %s: %s\n", delay, location)
}
