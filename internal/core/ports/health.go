package ports

import "context"

// HealthChecker abstracts a dependency probe; Check returns an error when
// the dependency is unreachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
