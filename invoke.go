package transmute

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"time"
)

// Invoke runs the whole request cycle for f: method check, argument
// extraction, the call itself and result processing. Errors that
// ProcessResult cannot render are returned; the caller decides how to
// report them, typically with ErrorStatus.
//
// A panic in f is recovered and returned as ErrPanic.
func (c *Context) Invoke(ctx context.Context, f *Function, pattern string, req Request) (Result, error) {
	c = c.orDefault()
	start := time.Now()
	log := c.logger()

	res, err := c.invoke(ctx, f, pattern, req)

	attrs := []slog.Attr{
		slog.String("function", f.Name),
		slog.String("method", req.Method()),
		slog.String("pattern", pattern),
		slog.Duration("latency", time.Since(start)),
	}
	switch {
	case err != nil:
		attrs = append(attrs, slog.Int("status", ErrorStatus(err)), slog.Any("err", err))
		log.LogAttrs(ctx, slog.LevelDebug, "invoke failed", attrs...)
	default:
		attrs = append(attrs, slog.Int("status", res.StatusCode))
		log.LogAttrs(ctx, slog.LevelDebug, "invoke", attrs...)
	}
	return res, err
}

func (c *Context) invoke(ctx context.Context, f *Function, pattern string, req Request) (Result, error) {
	accept := req.HeaderValues().Get("Accept")

	if !slices.Contains(f.Methods, req.Method()) {
		return c.ProcessResult(f, accept, nil, Errorf(http.StatusMethodNotAllowed, "method %s not allowed", req.Method()))
	}

	args, err := c.ExtractArgs(f, pattern, req)
	if err != nil {
		return c.ProcessResult(f, accept, nil, err)
	}

	result, err := c.call(ctx, f, args)
	if err != nil && f.IsRecoverable(err) {
		c.logger().LogAttrs(ctx, slog.LevelInfo, "recoverable error",
			slog.String("function", f.Name),
			slog.Any("err", err),
		)
	}
	return c.ProcessResult(f, accept, result, err)
}

// call runs f, turning a panic into ErrPanic.
func (c *Context) call(ctx context.Context, f *Function, args []any) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			c.logger().LogAttrs(ctx, slog.LevelError, "panic recovered",
				slog.Any("panic", rec),
				slog.String("stack", string(debug.Stack())),
				slog.String("function", f.Name),
			)
			result = nil
			err = fmt.Errorf("%w: %s: %v", ErrPanic, f.Name, rec)
		}
	}()
	return f.Call(ctx, args...)
}
