package domain

// Record is implemented by every clinic resource shown on a screen.
type Record interface {
	RecordID() string
	// SearchText is matched case-insensitively by the screen filter.
	SearchText() string
}
