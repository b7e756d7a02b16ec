package internal

import (
	"golang.org/x/xerrors"
)

// ErrMissingToken is returned when no bot token was provided at startup.
var ErrMissingToken = xerrors.New("No bot token was provided")

// ErrOperationInProgress is returned when a destructive operation is
// requested while another one is still running.
var ErrOperationInProgress = xerrors.New("Another destructive operation is already running")

var (
	ErrReadConfigurationFailure = xerrors.New("Failed to read configuration")
	ErrLoadConfigurationFailure = xerrors.New("Failed to load configuration")
)

var (
	// ErrGuildFetchFailure is returned when the live role or channel
	// listing could not be read. It always aborts before any write.
	ErrGuildFetchFailure = xerrors.New("Failed to fetch live guild structure")

	// ErrSnapshotMissing is returned when a restore was requested for a
	// guild that has no snapshot on file.
	ErrSnapshotMissing = xerrors.New("No snapshot exists for this guild")

	// ErrSnapshotCorrupt is returned when a snapshot file exists but could
	// not be parsed. Corrupt data is never partially accepted.
	ErrSnapshotCorrupt = xerrors.New("Snapshot file is malformed")

	// ErrRateLimited is returned when a single call exhausted its retries.
	ErrRateLimited = xerrors.New("Rate limit retries exhausted")

	// ErrInvalidToken is returned when an invalid token is used.
	ErrInvalidToken = xerrors.New("Token passed is not valid")

	// ErrChannelNotFound is returned when a channel rebuild targets a
	// channel that is not part of the guild structure.
	ErrChannelNotFound = xerrors.New("Channel is not part of the guild structure")
)
