package services

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrFamilyExists       = errors.New("family already exists for this profile")
	ErrNoFamily           = errors.New("family does not exist for this profile")
	ErrNoAvailablePort    = errors.New("no available port in range")
	ErrPortRangeExhausted = errors.New("proxy port range exhausted")
	ErrMissingProxyConfig = errors.New("missing required proxy host, username or password")
	ErrInvalidCount       = errors.New("count must be a positive integer")
)
