package redis

import "gomate/internal/repository"

// Ensure concrete types implement interfaces.
var (
	_ repository.Store = (*Store)(nil)
)
