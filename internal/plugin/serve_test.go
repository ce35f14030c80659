package plugin

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestServeIO(t *testing.T) {
	type echoParams struct {
		Key string `json:"key"`
	}
	handlers := map[string]Handler{
		"echo": func(req *Request) (any, error) {
			var p echoParams
			if err := req.DecodeParams(&p); err != nil {
				return nil, err
			}
			return map[string]string{"element": req.Element, "key": p.Key}, nil
		},
		"noop": func(*Request) (any, error) { return nil, nil },
		"fail": func(*Request) (any, error) { return nil, errors.New("denied") },
	}

	tests := []struct {
		name    string
		input   string
		success bool
		errText string
		data    string
	}{
		{
			name:    "data is returned",
			input:   `{"action":"echo","element":"menu","params":{"key":"space"}}`,
			success: true,
			data:    `{"element":"menu","key":"space"}`,
		},
		{
			name:    "no data",
			input:   `{"action":"noop"}`,
			success: true,
		},
		{
			name:    "handler error",
			input:   `{"action":"fail"}`,
			errText: "action fail failed: denied",
		},
		{
			name:    "unknown action",
			input:   `{"action":"dance"}`,
			errText: "unknown action: dance",
		},
		{
			name:    "bad request",
			input:   `{`,
			errText: "failed to decode request",
		},
		{
			name:    "bad params",
			input:   `{"action":"echo","params":"space"}`,
			errText: "failed to parse params",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			ServeIO(strings.NewReader(tt.input), &out, handlers)

			var resp Response
			if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
				t.Fatalf("invalid response %q: %v", out.String(), err)
			}
			if resp.Success != tt.success {
				t.Errorf("success = %v, want %v (error %q)", resp.Success, tt.success, resp.Error)
			}
			if !strings.Contains(resp.Error, tt.errText) {
				t.Errorf("error = %q, want it to contain %q", resp.Error, tt.errText)
			}
			if string(resp.Data) != tt.data {
				t.Errorf("data = %s, want %s", resp.Data, tt.data)
			}
		})
	}
}
