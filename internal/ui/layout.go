package ui

import "time"

// Layout sizes, in terminal cells.
const (
	// InputHeight is the number of text rows in the question input.
	InputHeight = 3

	// inputBoxHeight adds the label row and the border.
	inputBoxHeight = InputHeight + 3

	// LayoutCompactWidth is the threshold below which the header drops the
	// session name.
	LayoutCompactWidth = 60

	// QRMinWidth is the narrowest terminal the QR code is drawn in.
	QRMinWidth = 50
)

// Timing constants.
const (
	// ToastDuration is how long a notification stays on screen.
	ToastDuration = 3 * time.Second

	// maxToasts caps the notification stack.
	maxToasts = 3
)
