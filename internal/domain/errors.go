package domain

import "errors"

// ErrDuplicateUsername is returned by UserRepository.Create when the username
// unique constraint is violated.
var ErrDuplicateUsername = errors.New("username already exists")
