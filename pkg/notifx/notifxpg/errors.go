package notifxpg

import "github.com/maix-platform/maix/pkg/errx"

var pgErrors = errx.NewRegistry("NOTIFX_PG")

var (
	ErrListFollowers = pgErrors.Register("LIST_FOLLOWERS", errx.TypeExternal, 502, "Failed to list followers")
	ErrInsertFailed  = pgErrors.Register("INSERT_FAILED", errx.TypeExternal, 502, "Failed to insert notification")
	ErrBadMetadata   = pgErrors.Register("BAD_METADATA", errx.TypeValidation, 400, "Event metadata is not serializable")
)
