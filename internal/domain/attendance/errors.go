package attendance

import "errors"

var (
	ErrCorruptFact  = errors.New("corrupt attendance fact")
	ErrInvalidRange = errors.New("date_from must be before or equal date_to")
)
