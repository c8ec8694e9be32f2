package httputil

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fasthttp"
)

// ErrEmptyBody is returned by DecodeJSON for requests without a body.
var ErrEmptyBody = errors.New("request body is empty")

// APIResponse is the unified response format for all APIs
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// JSONResponse sends a JSON response with the unified format. The request id
// is taken from the X-Request-ID response header when already set.
func JSONResponse(ctx *fasthttp.RequestCtx, success bool, message string, data interface{}, statusCode int) {
	resp := APIResponse{
		Success:   success,
		Message:   message,
		RequestID: string(ctx.Response.Header.Peek("X-Request-ID")),
		Data:      data,
	}
	body, err := json.Marshal(resp)
	if err != nil {
		statusCode = fasthttp.StatusInternalServerError
		body = []byte(`{"success":false,"message":"failed to encode response"}`)
	}
	ctx.SetStatusCode(statusCode)
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}

// JSONError is a convenience wrapper for error responses
func JSONError(ctx *fasthttp.RequestCtx, message string, statusCode int) {
	JSONResponse(ctx, false, message, nil, statusCode)
}

// JSONData is a convenience wrapper for success responses with data
func JSONData(ctx *fasthttp.RequestCtx, data interface{}, statusCode int) {
	JSONResponse(ctx, true, "", data, statusCode)
}

// DecodeJSON decodes the request body into v.
func DecodeJSON(ctx *fasthttp.RequestCtx, v interface{}) error {
	body := ctx.PostBody()
	if len(body) == 0 {
		return ErrEmptyBody
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
