package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Handler performs one action for a plugin executable. The returned data is
// passed back in Response.Data and may be nil.
type Handler func(req *Request) (any, error)

// Serve is the main loop of a plugin executable: it reads one Request from
// stdin, runs the handler registered for its action and writes the Response
// to stdout.
func Serve(handlers map[string]Handler) {
	ServeIO(os.Stdin, os.Stdout, handlers)
}

// ServeIO is Serve over arbitrary streams.
func ServeIO(r io.Reader, w io.Writer, handlers map[string]Handler) {
	resp := handle(r, handlers)
	json.NewEncoder(w).Encode(resp)
}

func handle(r io.Reader, handlers map[string]Handler) Response {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Response{Error: fmt.Sprintf("failed to decode request: %v", err)}
	}

	h, ok := handlers[req.Action]
	if !ok {
		return Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	data, err := h(&req)
	if err != nil {
		return Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)}
	}

	resp := Response{Success: true}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Response{Error: fmt.Sprintf("encode result: %v", err)}
		}
		resp.Data = raw
	}
	return resp
}

// DecodeParams unmarshals the binding parameters into v. Missing parameters
// leave v unchanged.
func (r *Request) DecodeParams(v any) error {
	if len(r.Params) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Params, v); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	return nil
}
