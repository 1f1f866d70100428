package launch

import (
	"context"
	"time"

	"github.com/pkg/browser"
	"go.uber.org/zap"
)

// Opener opens the default web browser at the dashboard URL after a fixed
// delay. The delay exists because the task is scheduled when the process
// starts, not when the server is ready — the Flask dev server has no
// readiness signal to wait on, so a short grace period stands in for one.
type Opener struct {
	logger *zap.Logger

	// openURL performs the actual browser launch. It defaults to
	// browser.OpenURL and is swapped out in tests.
	openURL func(url string) error
}

// NewOpener creates an Opener that launches the platform's default browser.
func NewOpener(logger *zap.Logger) *Opener {
	return &Opener{
		logger:  logger,
		openURL: browser.OpenURL,
	}
}

// OpenAfter waits for the delay, then opens the browser at url. If ctx is
// cancelled before the delay elapses — the dashboard exited early or the
// launcher was interrupted — nothing is opened.
//
// A browser-open failure is logged and swallowed: the dashboard is up and
// reachable either way, so a headless host must not fail the launch.
func (o *Opener) OpenAfter(ctx context.Context, delay time.Duration, url string) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		o.logger.Debug("browser open cancelled", zap.String("url", url))
		return
	case <-timer.C:
	}

	if err := o.openURL(url); err != nil {
		o.logger.Warn("failed to open browser", zap.String("url", url), zap.Error(err))
		return
	}
	o.logger.Info("opened browser", zap.String("url", url))
}
