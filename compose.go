package storex

// Compose combines unary functions right to left:
// Compose(f, g, h)(x) == f(g(h(x))).
//
// With no functions it returns the identity; with one it returns it as is.
func Compose[F ~func(T) T, T any](fns ...F) F {
	switch len(fns) {
	case 0:
		return func(x T) T { return x }
	case 1:
		return fns[0]
	}
	fns = append([]F(nil), fns...)
	return func(x T) T {
		for i := len(fns) - 1; i >= 0; i-- {
			x = fns[i](x)
		}
		return x
	}
}

// ComposeEnhancers combines enhancers so the leftmost one wraps outermost.
func ComposeEnhancers[S any](enhancers ...Enhancer[S]) Enhancer[S] {
	return Compose(enhancers...)
}
