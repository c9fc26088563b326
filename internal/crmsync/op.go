package crmsync

import "context"

// Op is a local mutation that has already been applied to the store, paired
// with the remote write that confirms it. Sync may be called from any
// goroutine; the store is safe for concurrent use.
type Op struct {
	svc      *Service
	action   string
	entity   string
	entityID string
	fallback string

	remote   func(ctx context.Context) error
	revert   func() bool // reports whether anything was restored
	onCommit func()
}

func (o *Op) Action() string   { return o.action }
func (o *Op) EntityID() string { return o.entityID }

// Sync issues the remote write. On failure the local change is reverted when
// the service's rollback policy allows it, the failure is journaled, and a
// *SyncError is returned for the caller to alert on. Nothing is retried.
func (o *Op) Sync(ctx context.Context) error {
	err := o.remote(ctx)
	if err == nil {
		if o.onCommit != nil {
			o.onCommit()
		}
		return nil
	}

	syncErr := &SyncError{
		Action:   o.action,
		Entity:   o.entity,
		EntityID: o.entityID,
		Fallback: o.fallback,
		Err:      err,
	}
	if o.svc.rollback && o.revert != nil {
		syncErr.RolledBack = o.revert()
	}
	o.svc.recordFailure(syncErr)
	return syncErr
}
