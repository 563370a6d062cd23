package botcheck

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/mcatedge-landing/internal/waitlist"
)

const defaultNavigationTimeout = 30 * time.Second

// HeadlessConfig controls the headless provider.
type HeadlessConfig struct {
	PageURL           string
	SiteKey           string
	Action            string
	MaxParallel       int
	UserAgent         string
	NavigationTimeout time.Duration
}

// Headless runs the challenge script inside headless Chrome on the landing page.
type Headless struct {
	cfg         HeadlessConfig
	fields      FieldMap
	logger      *zap.Logger
	limiter     chan struct{}
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewHeadless creates a chromedp-backed provider. Chrome is started lazily on the first token request.
func NewHeadless(cfg HeadlessConfig, fields FieldMap, logger *zap.Logger) (*Headless, error) {
	if cfg.PageURL == "" {
		return nil, errors.New("headless bot check requires a page url")
	}
	if cfg.SiteKey == "" {
		return nil, errors.New("headless bot check requires a site key")
	}
	if cfg.MaxParallel < 0 {
		return nil, fmt.Errorf("max parallel must be >= 0")
	}
	if cfg.Action == "" {
		cfg.Action = DefaultAction
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	var limiter chan struct{}
	if cfg.MaxParallel > 0 {
		limiter = make(chan struct{}, cfg.MaxParallel)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Headless{
		cfg:         cfg,
		fields:      fields,
		logger:      logger.Named("botcheck"),
		limiter:     limiter,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close shuts down the browser allocator.
func (h *Headless) Close() {
	h.allocCancel()
}

// AcquireToken implements waitlist.BotCheckProvider.
func (h *Headless) AcquireToken(ctx context.Context, formID string) (string, error) {
	field, err := h.fields.Field(formID)
	if err != nil {
		return "", err
	}
	if err := h.acquire(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", waitlist.ErrBotCheckFailed, err)
	}
	defer h.release()

	taskCtx, taskCancel := chromedp.NewContext(h.allocator)
	defer taskCancel()
	taskCtx, cancel := context.WithTimeout(taskCtx, h.cfg.NavigationTimeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	start := time.Now()
	var ready bool
	var token string
	actions := []chromedp.Action{
		h.userAgentAction(),
		chromedp.Navigate(h.cfg.PageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Poll(readyExpression, &ready),
		chromedp.Evaluate(executeExpression(h.cfg.SiteKey, h.cfg.Action), &token, awaitPromise),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		return "", fmt.Errorf("%w: chromedp run: %w", waitlist.ErrBotCheckFailed, err)
	}
	if token == "" {
		return "", fmt.Errorf("%w: challenge returned an empty token", waitlist.ErrBotCheckFailed)
	}
	if err := chromedp.Run(taskCtx, chromedp.SetValue("#"+field, token, chromedp.ByQuery)); err != nil {
		h.logger.Warn("write token field failed", zap.String("field", field), zap.Error(err))
	}
	h.logger.Debug("bot check token acquired",
		zap.String("form_id", formID),
		zap.Duration("duration", time.Since(start)),
	)
	return token, nil
}

const readyExpression = `typeof grecaptcha !== 'undefined' && typeof grecaptcha.execute === 'function'`

func executeExpression(siteKey, action string) string {
	return fmt.Sprintf(
		`new Promise((resolve, reject) => grecaptcha.ready(() => grecaptcha.execute(%s, {action: %s}).then(resolve, reject)))`,
		strconv.Quote(siteKey), strconv.Quote(action),
	)
}

func awaitPromise(p *runtime.EvaluateParams) *runtime.EvaluateParams {
	return p.WithAwaitPromise(true)
}

func (h *Headless) userAgentAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if h.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(h.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (h *Headless) acquire(ctx context.Context) error {
	if h.limiter == nil {
		return nil
	}
	select {
	case h.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("headless slot wait canceled: %w", ctx.Err())
	}
}

func (h *Headless) release() {
	if h.limiter == nil {
		return
	}
	select {
	case <-h.limiter:
	default:
	}
}
