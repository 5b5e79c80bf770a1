package widgets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/coal/fwdash/internal/api"
)

// ErrTransitionNotAllowed is returned for a status change the state
// machine forbids. No write is issued.
var ErrTransitionNotAllowed = errors.New("alert transition not allowed")

// ErrUnknownAlert is returned for an action on an alert that is not in the
// loaded list. No write is issued.
var ErrUnknownAlert = errors.New("alert not in the loaded list")

// Alert actions.
const (
	ActionAck   = "ack"
	ActionClose = "close"
)

// NormalizeStatus upper-cases s and maps unknown or empty values to OPEN.
func NormalizeStatus(s string) string {
	switch up := strings.ToUpper(strings.TrimSpace(s)); up {
	case api.StatusOpen, api.StatusAck, api.StatusClosed:
		return up
	}
	return api.StatusOpen
}

// Transition returns the target status of action applied to an alert in
// status from. OPEN and ACK can be acked or closed; CLOSED can only be
// closed again.
func Transition(from, action string) (string, error) {
	cur := NormalizeStatus(from)
	switch action {
	case ActionAck:
		if cur == api.StatusClosed {
			return "", fmt.Errorf("%w: ack on %s alert", ErrTransitionNotAllowed, cur)
		}
		return api.StatusAck, nil
	case ActionClose:
		return api.StatusClosed, nil
	}
	return "", fmt.Errorf("%w: unknown action %q", ErrTransitionNotAllowed, action)
}

// Phase names the step that settled a status write.
type Phase string

const (
	PhasePrimary Phase = "primary"
	PhaseLegacy  Phase = "legacy"
	PhaseFailed  Phase = "failed"
)

// WriteResult is the outcome of WriteStatus. Err is set only for PhaseFailed.
type WriteResult struct {
	Phase Phase
	Err   error
}

// StatusWriter is the backend surface of the two write phases.
type StatusWriter interface {
	PatchAlertStatus(ctx context.Context, id int64, status string) error
	PostAlertStatusLegacy(ctx context.Context, id int64, status string) error
}

// WriteStatus writes status with PATCH and falls back to the legacy POST
// when the PATCH fails for any reason.
func WriteStatus(ctx context.Context, w StatusWriter, id int64, status string) WriteResult {
	perr := w.PatchAlertStatus(ctx, id, status)
	if perr == nil {
		return WriteResult{Phase: PhasePrimary}
	}
	lerr := w.PostAlertStatusLegacy(ctx, id, status)
	if lerr == nil {
		return WriteResult{Phase: PhaseLegacy}
	}
	return WriteResult{
		Phase: PhaseFailed,
		Err: errors.Join(
			fmt.Errorf("patch alert %d: %w", id, perr),
			fmt.Errorf("legacy post alert %d: %w", id, lerr),
		),
	}
}
