package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxPayloadLog caps logged params and results; generated artifacts can be large.
const maxPayloadLog = 2048

// trafficLoggingMiddleware logs every MCP message at debug level, with the
// tool name for tools/call and the elapsed time of each exchange.
func trafficLoggingMiddleware(logger *slog.Logger, direction string) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
				return next(ctx, method, req)
			}

			params := paramsOf(req)
			attrs := []any{
				"direction", direction,
				"method", method,
				"session_id", sessionIDOf(req),
				"request_id", getRequestID(ctx),
			}
			if call, ok := params.(*sdkmcp.CallToolParamsRaw); ok && call != nil {
				attrs = append(attrs, "tool", call.Name)
			}
			logger.Debug("mcp request", append(attrs, "params", clip(params))...)

			start := time.Now()
			result, err := next(ctx, method, req)
			if strings.HasPrefix(method, "notifications/") {
				return result, err
			}

			attrs = append(attrs, "duration", time.Since(start))
			if res, ok := result.(*sdkmcp.CallToolResult); ok && res != nil {
				attrs = append(attrs, "is_error", res.IsError)
			}
			if err != nil {
				attrs = append(attrs, "error", err)
			}
			logger.Debug("mcp response", append(attrs, "result", clip(result))...)
			return result, err
		}
	}
}

// sessionIDOf and paramsOf tolerate requests whose accessors panic on nil
// receivers behind a non-nil interface.
func sessionIDOf(req sdkmcp.Request) (id string) {
	if req == nil {
		return ""
	}
	defer func() {
		if recover() != nil {
			id = ""
		}
	}()
	if session := req.GetSession(); session != nil {
		return session.ID()
	}
	return ""
}

func paramsOf(req sdkmcp.Request) (params any) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			params = nil
		}
	}()
	return req.GetParams()
}

func clip(payload any) string {
	if payload == nil {
		return "<nil>"
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Sprintf("%T", payload)
	}
	if len(data) > maxPayloadLog {
		return string(data[:maxPayloadLog]) + fmt.Sprintf("...(%d bytes)", len(data))
	}
	return string(data)
}
