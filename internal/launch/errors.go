package launch

import "errors"

var (
	ErrInvalidLaunchName = errors.New("invalid launch name")
	ErrInvalidSelection  = errors.New("invalid or stale selection")
)
