package crmsync

import (
	"errors"
	"fmt"

	"github.com/gabrielrodrigueslb/lintra/internal/api"
)

// ErrValidation wraps every error caught before a remote call is made.
var ErrValidation = errors.New("validation failed")

var (
	ErrFunnelNameRequired = fmt.Errorf("%w: funnel name is required", ErrValidation)
	ErrNoStages           = fmt.Errorf("%w: add at least one stage", ErrValidation)
	ErrTitleRequired      = fmt.Errorf("%w: title is required", ErrValidation)
	ErrNoActiveFunnel     = fmt.Errorf("%w: funnel or stage not identified", ErrValidation)
	ErrDealNotFound       = fmt.Errorf("%w: deal not found", ErrValidation)
	ErrFunnelNotFound     = fmt.Errorf("%w: funnel not found", ErrValidation)
)

// Fallback alert texts used when the server gives no message.
const (
	MsgSaveDeal     = "Failed to save deal."
	MsgDeleteDeal   = "Failed to delete deal."
	MsgMoveDeal     = "Failed to sync move."
	MsgSaveFunnel   = "Failed to save funnel."
	MsgDeleteFunnel = "Failed to delete funnel."
	MsgLoad         = "Failed to load data."
)

// SyncError is a remote write that failed after its local mutation.
type SyncError struct {
	Action     string
	Entity     string
	EntityID   string
	Fallback   string
	RolledBack bool
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Action, e.Entity, e.EntityID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// AlertMessage is the text shown to the user for err: the server's message
// when it sent one, else the fallback.
func AlertMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrValidation) {
		return err.Error()
	}
	if msg := api.ServerMessage(err); msg != "" {
		return msg
	}
	var syncErr *SyncError
	if errors.As(err, &syncErr) && syncErr.Fallback != "" {
		return syncErr.Fallback
	}
	return fallback
}

// Alerter shows a message the user has to acknowledge.
type Alerter interface {
	Alert(message string)
}

// Alert reports err through a when err is not nil.
func Alert(a Alerter, err error, fallback string) {
	if err == nil || a == nil {
		return
	}
	a.Alert(AlertMessage(err, fallback))
}
