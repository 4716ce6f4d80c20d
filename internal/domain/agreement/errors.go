package agreement

import "errors"

// ErrLengthMismatch is returned when the compared vectors differ in length.
var ErrLengthMismatch = errors.New("agreement: vectors differ in length")
