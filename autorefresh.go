package zonewatch

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/zonewatch/pkg/constants"
	"github.com/agentstation/zonewatch/pkg/errors"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoRefresher = (*client)(nil)

// AutoRefresher provides controls for periodic refresh of the current filter.
type AutoRefresher interface {
	// AutoRefreshOn begins periodic refresh at the configured interval
	AutoRefreshOn() error

	// AutoRefreshOff stops periodic refresh
	AutoRefreshOff() error
}

// AutoRefreshOn begins periodic refresh. Each tick re-applies the current
// filter, which is a mutation of its own and supersedes any pending cycle.
func (c *client) AutoRefreshOn() error {
	interval := c.options.autoRefreshInterval
	if interval <= 0 {
		return &errors.ValidationError{
			Field:   "autoRefreshInterval",
			Value:   interval,
			Message: "refresh interval must be positive",
		}
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Stop any existing poller to prevent resource leaks
	c.stopRefreshLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.refreshCancel = cancel
	c.refreshDone = done

	go func(parentCtx context.Context) {
		defer close(done)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				refreshCtx, refreshCancel := context.WithTimeout(parentCtx, constants.RefreshContextTimeout)
				_, err := c.Refresh(refreshCtx)
				refreshCancel()

				switch {
				case err == nil:
				case stderrors.Is(err, context.Canceled):
					return
				case stderrors.Is(err, errors.ErrSuperseded):
					c.logger.Debug().Err(err).Msg("Auto-refresh overtaken by a newer filter")
				default:
					c.logger.Error().Err(err).Msg("Auto-refresh failed")
				}
			case <-parentCtx.Done():
				return
			}
		}
	}(ctx)

	c.logger.Debug().Dur("interval", interval).Msg("Auto-refresh started")
	return nil
}

// AutoRefreshOff stops periodic refresh and waits for the poller to exit.
func (c *client) AutoRefreshOff() error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()
	c.stopRefreshLocked()
	return nil
}

// stopRefreshLocked cancels the poller, if any. Callers hold c.refreshMu.
func (c *client) stopRefreshLocked() {
	if c.refreshCancel == nil {
		return
	}
	c.refreshCancel()
	<-c.refreshDone
	c.refreshCancel, c.refreshDone = nil, nil
}
