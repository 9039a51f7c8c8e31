package repository

import "errors"

// ErrDuplicate is returned by implementations when an insert or update
// hits a uniqueness constraint. Services translate it into the
// appropriate conflict error for the operation.
var ErrDuplicate = errors.New("duplicate row")
