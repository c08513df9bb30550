package agent

import "errors"

var (
	// ErrGenerationFailed: no strategy produced usable text. The token
	// stays eligible for a later tick.
	ErrGenerationFailed = errors.New("announcement generation failed")

	// ErrInvalidIdentity: the record has no usable id/address and can
	// never be safely marked, so it is skipped outright.
	ErrInvalidIdentity = errors.New("token identity invalid")
)
