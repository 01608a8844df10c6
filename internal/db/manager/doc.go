// Package manager owns the single warehouse session of a run.
//
// Every stage borrows the same session from the Manager:
//
//	mgr := manager.New(connector, logger)
//	defer mgr.Release()
//
//	session, err := mgr.Acquire(ctx) // opens on first call
//	again, _ := mgr.Acquire(ctx)     // same session
//
// Acquire makes one connection attempt and reports failures as
// tpch.ErrConnectionFailed; retrying is up to the caller. Release is
// idempotent and safe before Acquire, so it can always be deferred.
package manager
