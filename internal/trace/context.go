package trace

import "context"

type ctxKey struct{}

// FromContext extracts the Tracer from context, Nop if there is none.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

type parentKey struct{}

// WithParent records the span new spans in ctx should nest under.
func WithParent(ctx context.Context, span *Span) context.Context {
	return context.WithValue(ctx, parentKey{}, span.ID())
}

// ParentFrom returns the span ID stored by WithParent, 0 if none.
func ParentFrom(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(parentKey{}).(uint64)
	return id
}
