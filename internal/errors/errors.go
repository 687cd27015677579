package errors

import "errors"

var (
	ErrUnknownTriggerKind = errors.New("unknown trigger kind")
	ErrPackageRequired    = errors.New("package name is required")
	ErrInvalidPackageName = errors.New("invalid package name")
	ErrUnknownIndex       = errors.New("unknown target index")
	ErrBundleNotFound     = errors.New("artifact bundle not found")
	ErrBundleEmpty        = errors.New("artifact bundle contains no distributions")
	ErrHistoryDisabled    = errors.New("run history is not configured (set history.table)")
	ErrUnknownBackend     = errors.New("unknown artifact store backend")
)
