package services

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by the core services. Handlers map these onto HTTP
// statuses; anything else is treated as a transient store failure the caller
// may retry.
var (
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidDenomination = errors.New("amount is not a withdrawable denomination")
	ErrInsufficientBalance = errors.New("insufficient diamond balance")
	ErrTaskIncomplete      = errors.New("task is not completed yet")
	ErrAlreadyCollected    = errors.New("task reward already collected")
	ErrPremiumRequired     = errors.New("premium subscription required")
	ErrNotOwner            = errors.New("swipe does not belong to caller")
	ErrNotLatestSwipe      = errors.New("only the most recent swipe can be rewound")
	ErrNotMatched          = errors.New("users are not matched")
	ErrUserNotFound        = errors.New("user not found")
)

// today returns the server's calendar date key used by quota and task rows.
func today() string {
	return time.Now().UTC().Format("2006-01-02")
}
