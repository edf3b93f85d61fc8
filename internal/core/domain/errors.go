package domain

import "errors"

// Business-rule violations returned by economy operations. Callers are
// expected to match these with errors.Is and surface a user-facing message;
// none of them leave any partial mutation behind.
var (
	ErrInsufficientFunds    = errors.New("domain: insufficient funds")
	ErrAlreadyOwned         = errors.New("domain: track already owned")
	ErrDuplicateItem        = errors.New("domain: duplicate collection item")
	ErrNotFound             = errors.New("domain: not found")
	ErrUnknownGeneratorType = errors.New("domain: unknown generator type")
	ErrInvalidTrade         = errors.New("domain: invalid trade")

	// ErrStorage wraps persistence failures. The in-memory mutation that
	// triggered the save stands; the next successful save carries it.
	ErrStorage = errors.New("domain: storage error")

	// ErrNotReady is returned when an operation is invoked outside the
	// Ready phase of a session.
	ErrNotReady = errors.New("domain: session not ready")
)
