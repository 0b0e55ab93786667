package server

import (
	"context"
)

// HandlerFunc represents the next handler in an interceptor chain.
// It is passed to [UnaryInterceptor] functions to invoke the next interceptor
// or the final handler.
type HandlerFunc func(ctx context.Context, req any) (res any, err error)

// UnaryInterceptor wraps the execution of an endpoint implementation.
//
//	func timing(ctx context.Context, req any, info *server.CallInfo, handler server.HandlerFunc) (any, error) {
//	    start := time.Now()
//	    res, err := handler(ctx, req)
//	    log.Printf("%s took %v", info.Endpoint, time.Since(start))
//	    return res, err
//	}
//
// The handler parameter is the next handler in the chain. Interceptors can:
//   - Inspect/modify the request before calling handler
//   - Inspect/modify the response after calling handler
//   - Short-circuit by returning an error without calling handler
//   - Add values to context using context.WithValue
//
// req and res are the endpoint's request and response values, not pointers.
type UnaryInterceptor func(ctx context.Context, req any, info *CallInfo, handler HandlerFunc) (res any, err error)

// chainInterceptors combines multiple interceptors into a single one.
// The first interceptor in the slice is the outer-most one (runs first).
func chainInterceptors(interceptors []UnaryInterceptor) UnaryInterceptor {
	if len(interceptors) == 0 {
		return nil
	}
	if len(interceptors) == 1 {
		return interceptors[0]
	}
	return func(ctx context.Context, req any, info *CallInfo, handler HandlerFunc) (any, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			current := interceptors[i]
			next := chain
			chain = func(ctx context.Context, req any) (any, error) {
				return current(ctx, req, info, next)
			}
		}
		return chain(ctx, req)
	}
}
