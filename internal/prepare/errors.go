package prepare

import "errors"

// Input errors. The gateway reports them to the client as invalid requests.
var (
	ErrEmptyMessage      = errors.New("message content empty")
	ErrSingleTurn        = errors.New("single-turn model requires a final user message")
	ErrImageHostRequired = errors.New("streaming image generation requires PICGO_KEY or TUMY_KEY")
)

// IsInvalidInput reports whether err was caused by the client's messages.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrSingleTurn) ||
		errors.Is(err, ErrImageHostRequired)
}
