package demo

import (
	"context"
	"errors"
	"sync"

	"modelfolio/pkg/types"
)

// State is a widget's lifecycle position.
type State int

const (
	StateIdle State = iota
	StatePending
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy is returned by Submit while a previous submission is pending.
	ErrBusy = errors.New("demo already running")
	// ErrClosed is returned by Submit after Close.
	ErrClosed = errors.New("demo widget closed")
	// ErrDiscarded is returned when the widget was closed while the call was in flight.
	ErrDiscarded = errors.New("demo result discarded")
)

// Snapshot is a consistent view of a widget.
type Snapshot struct {
	State  State
	Result *types.DemoResult
	Error  string
}

// Widget runs one model's demo. At most one submission is in flight:
// idle -> pending -> done | failed, and done/failed may be submitted again.
type Widget struct {
	demoType types.DemoType
	model    string
	runner   Runner

	mu     sync.Mutex
	state  State
	result *types.DemoResult
	errMsg string
	closed bool
}

// NewWidget returns an idle widget for a listing's demo type and optional model override.
func NewWidget(demoType types.DemoType, model string, r Runner) *Widget {
	return &Widget{demoType: demoType, model: model, runner: r}
}

// DemoType returns the fixed demo type of the widget.
func (w *Widget) DemoType() types.DemoType { return w.demoType }

// Submit validates input, then runs it. passage is the question-answering context.
func (w *Widget) Submit(ctx context.Context, input, passage string) (out types.DemoResult, err error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return types.DemoResult{}, ErrClosed
	}
	if w.state == StatePending {
		w.mu.Unlock()
		return types.DemoResult{}, ErrBusy
	}
	req, err := Build(w.demoType, input, passage, w.model)
	if err != nil {
		w.state, w.result, w.errMsg = StateFailed, nil, err.Error()
		w.mu.Unlock()
		return types.DemoResult{}, err
	}
	w.state, w.result, w.errMsg = StatePending, nil, ""
	w.mu.Unlock()

	completed := false
	defer func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		switch {
		case !completed && !w.closed:
			// runner panicked
			w.state, w.result, w.errMsg = StateFailed, nil, "demo aborted"
		case w.closed:
			out, err = types.DemoResult{}, ErrDiscarded
		case err != nil:
			w.state, w.errMsg = StateFailed, err.Error()
		default:
			res := out
			w.state, w.result = StateDone, &res
		}
	}()
	out, err = w.runner.Run(ctx, req)
	completed = true
	if err != nil {
		out = types.DemoResult{}
	}
	return out, err
}

// Snapshot returns the current state, result, and error message.
func (w *Widget) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{State: w.state, Result: w.result, Error: w.errMsg}
}

// Reset clears a finished widget back to idle. It is a no-op while pending.
func (w *Widget) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == StatePending {
		return
	}
	w.state, w.result, w.errMsg = StateIdle, nil, ""
}

// Close detaches the widget. A call still in flight is abandoned and its
// outcome is not applied.
func (w *Widget) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	w.state, w.result, w.errMsg = StateIdle, nil, ""
}
