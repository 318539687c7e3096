package policy

import "errors"

var (
	ErrPolicyNotFound = errors.New("time policy not found for company")
)
