package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/luchenqun/lucky-dog/internal/logger"
	"github.com/luchenqun/lucky-dog/pkg/apiclient"
	"github.com/luchenqun/lucky-dog/pkg/wallet"
)

// Confirm-found retry schedule: a burst of quick attempts, then a few
// slow ones before giving up. The success report has already latched
// the coordinator by then, so giving up loses only the extra audit
// stanza.
const (
	confirmQuickAttempts = 5
	confirmQuickDelay    = 5 * time.Second
	confirmSlowAttempts  = 3
	confirmSlowDelay     = 10 * time.Second
)

// DefaultBackoff is the pause between lease attempts when the store is
// exhausted or the coordinator is unreachable.
const DefaultBackoff = 10 * time.Second

// Loop drives the lease -> verify -> report cycle until the password
// is found, the coordinator signals stop, or the context is cancelled.
type Loop struct {
	Client   *apiclient.Client
	ClientID string

	// CPUCount is advertised to the coordinator to size the batch.
	CPUCount int

	// Workers is the local execution-unit parallelism.
	Workers int

	// Backoff defaults to DefaultBackoff when zero.
	Backoff time.Duration
}

// Run executes the control loop. It returns nil when the coordinator
// reports the password found (by this worker or another), and an error
// only on context cancellation or an unrecoverable confirm failure.
func (l *Loop) Run(ctx context.Context) error {
	backoff := l.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	logger.Info("Worker started", "client", l.ClientID, "units", l.Workers, "cpu", l.CPUCount)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		resp, err := l.Client.RequestWork(ctx, l.ClientID, l.CPUCount)
		if err != nil {
			logger.Warn("Lease request failed, backing off", "error", err, "backoff", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		if resp.PasswordFound {
			logger.Info("Coordinator reports password found, stopping", "client", l.ClientID)
			return nil
		}

		if !resp.Success || len(resp.Passwords) == 0 {
			logger.Debug("No work available, backing off", "backoff", backoff.String())
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		if resp.Encrypt == nil || resp.Encrypt.Validate() != nil {
			logger.Error("Lease carries an invalid wallet descriptor, backing off", "batch", resp.BatchID)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			continue
		}

		logger.Info("Batch received", "batch", resp.BatchID, "count", len(resp.Passwords))

		descriptor := resp.Encrypt
		runner := &Runner{
			Workers: l.Workers,
			Verify:  func(pwd string) bool { return wallet.Verify(descriptor, pwd) },
		}
		result := runner.Run(ctx, resp.Passwords)

		if result.Found {
			logger.Warn("Password found", "batch", resp.BatchID)
			if err := l.reportSuccess(ctx, resp, result.Password, backoff); err != nil {
				return err
			}
			return nil
		}

		if l.reportFailure(ctx, resp, backoff) {
			return nil
		}
	}
}

// reportSuccess submits the success report and then confirms the find,
// per the retry schedule. The full leased set rides along for
// bookkeeping.
func (l *Loop) reportSuccess(ctx context.Context, resp *apiclient.WorkResponse, password string, backoff time.Duration) error {
	for {
		_, err := l.Client.SubmitResult(ctx, resp.BatchID, l.ClientID, true, password, resp.Passwords)
		if err == nil {
			break
		}
		logger.Warn("Success report failed, retrying", "batch", resp.BatchID, "error", err)
		if !sleep(ctx, backoff) {
			return ctx.Err()
		}
	}

	return l.confirmFound(ctx, password)
}

// confirmFound re-asserts the latch: five quick attempts, then three
// slow ones.
func (l *Loop) confirmFound(ctx context.Context, password string) error {
	var lastErr error
	for attempt := 1; attempt <= confirmQuickAttempts; attempt++ {
		if lastErr = l.Client.ConfirmFound(ctx, l.ClientID, password); lastErr == nil {
			return nil
		}
		logger.Warn("Confirm-found failed", "attempt", attempt, "error", lastErr)
		if !sleep(ctx, confirmQuickDelay) {
			return ctx.Err()
		}
	}
	for attempt := 1; attempt <= confirmSlowAttempts; attempt++ {
		if lastErr = l.Client.ConfirmFound(ctx, l.ClientID, password); lastErr == nil {
			return nil
		}
		logger.Warn("Confirm-found failed", "attempt", confirmQuickAttempts+attempt, "error", lastErr)
		if !sleep(ctx, confirmSlowDelay) {
			return ctx.Err()
		}
	}
	return fmt.Errorf("failed to confirm found password: %w", lastErr)
}

// reportFailure submits a failure report carrying the full leased set
// so the coordinator can mark it CHECKED, retrying on network errors.
// Returns true when the coordinator signalled the worker to stop.
func (l *Loop) reportFailure(ctx context.Context, resp *apiclient.WorkResponse, backoff time.Duration) bool {
	for {
		ack, err := l.Client.SubmitResult(ctx, resp.BatchID, l.ClientID, false, "", resp.Passwords)
		if err == nil {
			if ack.ShouldStop {
				logger.Info("Coordinator signalled stop after report", "batch", resp.BatchID)
			}
			return ack.ShouldStop
		}
		logger.Warn("Failure report failed, retrying", "batch", resp.BatchID, "error", err)
		if !sleep(ctx, backoff) {
			return false
		}
	}
}

// sleep pauses for d, returning false when the context is cancelled
// first.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
