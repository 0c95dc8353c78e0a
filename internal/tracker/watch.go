package tracker

import (
	"context"
	"time"

	"github.com/kiranshivaraju/autodesign/internal/session"
)

// Watch steps sess on a timer until it reaches a terminal state or ctx is
// cancelled, sending one Update per step. The channel is closed when
// watching stops. The caller must not touch sess until then.
func (t *Tracker) Watch(ctx context.Context, sess *session.Session) <-chan Update {
	updates := make(chan Update)

	go func() {
		defer close(updates)

		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			u := t.Step(ctx, sess)
			if u.Err != nil && ctx.Err() != nil {
				return
			}

			select {
			case updates <- u:
			case <-ctx.Done():
				return
			}

			if u.Err != nil || u.State.Terminal() {
				return
			}
			timer.Reset(u.Wait)
		}
	}()

	return updates
}
