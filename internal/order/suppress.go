package order

import "context"

// The synchronizer's own order→item fan-out must not re-enter the
// item→order rule, or a single write would bounce between the two rules
// forever. Suppression travels on the context of the triggering operation
// so concurrent settlements on different orders cannot interfere with each
// other, unlike a process-wide toggle.

type suppressKey struct{}

// WithSuppressedSync marks ctx as belonging to a control pass: any
// synchronizer entry point invoked under it is a no-op.
func WithSuppressedSync(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey{}, true)
}

func syncSuppressed(ctx context.Context) bool {
	suppressed, _ := ctx.Value(suppressKey{}).(bool)
	return suppressed
}
