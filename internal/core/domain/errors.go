package domain

import "errors"

var (
	// ErrMalformedUpdate is returned when any entry of an update batch fails
	// validation. The whole batch is discarded and the store is untouched.
	ErrMalformedUpdate = errors.New("malformed update batch, nothing was applied")
	// ErrStaleUpdate is returned when the update reports a tip older than the
	// stored one beyond single-block reorg tolerance. The caller should
	// re-fetch with a fresh scan.
	ErrStaleUpdate = errors.New("update tip is too far behind the stored tip")
	// ErrCorruptUpdate is returned when an output paying a script the wallet
	// definitively owns cannot be unblinded with the wallet's key.
	ErrCorruptUpdate = errors.New("update contains an unopenable output on an owned script")
	// ErrTxoNotFound ...
	ErrTxoNotFound = errors.New("txo not found in wallet")
	// ErrTxoAlreadyLocked ...
	ErrTxoAlreadyLocked = errors.New("txo is already locked by another session")
	// ErrTxNotFound ...
	ErrTxNotFound = errors.New("transaction not found in wallet")
	// ErrScriptNotFound ...
	ErrScriptNotFound = errors.New("script does not belong to wallet")
)
