package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which tab labels collapse to
	// their numbers and narrow columns are dropped.
	LayoutCompactWidth = 100
)

// Timing constants.
const (
	// ToastTTL is how long a notice stays on screen.
	ToastTTL = 4 * time.Second

	// MaxToasts caps the notices shown at once; older ones are dropped.
	MaxToasts = 3

	// ActionTimeout bounds one load or write started from a key press. It
	// starts after any confirmation is answered.
	ActionTimeout = 30 * time.Second

	// ConfirmTimeout is how long a confirmation modal waits for an answer
	// before it is dismissed as declined.
	ConfirmTimeout = 60 * time.Second
)
