package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

type contextKey int

const requestIDKey contextKey = iota

// getRequestID extracts the generation-request id from context.
func getRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// requestIDMiddleware extracts a request id from the X-Request-ID header (HTTP)
// or _meta.request_id (stdio). Stage tools use it as the run id.
func requestIDMiddleware() sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method != "tools/call" {
				return next(ctx, method, req)
			}

			var requestID string
			extra := req.GetExtra()
			if extra != nil && extra.Header != nil {
				requestID = extra.Header.Get("X-Request-ID")
			}

			// Some requests carry nil params behind a non-nil interface.
			if requestID == "" {
				if params := req.GetParams(); params != nil {
					func() {
						defer func() { recover() }()
						if meta := params.GetMeta(); meta != nil {
							if id, ok := meta["request_id"].(string); ok {
								requestID = id
							}
						}
					}()
				}
			}

			if requestID != "" {
				ctx = context.WithValue(ctx, requestIDKey, requestID)
			}
			return next(ctx, method, req)
		}
	}
}
