package service

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// TooBusyError signals queue timeout or overflow (429).
type TooBusyError struct{}

func (TooBusyError) Error() string   { return "Too many demo requests in flight. Please try again later." }
func (TooBusyError) StatusCode() int { return http.StatusTooManyRequests }

// IsTooBusy reports whether err indicates admission backpressure.
func IsTooBusy(err error) bool {
	var e TooBusyError
	return errors.As(err, &e)
}

// Admission bounds concurrent upstream calls. Callers first reserve a queue
// slot, then wait for one of the in-flight slots; both waits give up after maxWait.
type Admission struct {
	queueCh chan struct{}
	genCh   chan struct{}
	maxWait time.Duration
}

// NewAdmission returns a gate allowing maxInflight concurrent calls with up
// to maxQueue callers (including in-flight ones) admitted at once.
func NewAdmission(maxInflight, maxQueue int, maxWait time.Duration) *Admission {
	if maxInflight <= 0 {
		maxInflight = 1
	}
	if maxQueue < maxInflight {
		maxQueue = maxInflight
	}
	if maxWait <= 0 {
		maxWait = 30 * time.Second
	}
	return &Admission{
		queueCh: make(chan struct{}, maxQueue),
		genCh:   make(chan struct{}, maxInflight),
		maxWait: maxWait,
	}
}

// Begin reserves an in-flight slot. The returned release func must be called once.
func (a *Admission) Begin(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer := time.NewTimer(a.maxWait)
	defer timer.Stop()
	select {
	case a.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, TooBusyError{}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-a.queueCh
		}
	}()
	select {
	case a.genCh <- struct{}{}:
		acquired = true
		return func() { <-a.genCh; <-a.queueCh }, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, TooBusyError{}
	}
}

// Inflight reports the number of calls holding a slot.
func (a *Admission) Inflight() int { return len(a.genCh) }
