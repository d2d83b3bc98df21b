package actions

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// HTTPRequest performs a synchronous outbound call. It is not suspendable:
// a node that needs to wait for an inbound callback instead of a
// synchronous response uses WebhookWait.
type HTTPRequest struct{ base }

func (HTTPRequest) Kind() domain.NodeKind { return domain.NodeKindAction }
func (HTTPRequest) InputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (HTTPRequest) OutputPorts() []string { return []string{domain.DefaultSuccessPort, "error"} }
func (HTTPRequest) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{
		"method": {Type: "string", Default: "GET"},
		"url":    {Type: "string", Required: true},
		"body":   {Type: "object"},
	}
}

func (HTTPRequest) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	method, _ := params["method"].(string)
	if method == "" {
		method = http.MethodGet
	}
	url, _ := params["url"].(string)

	var body io.Reader
	if b, ok := params["body"]; ok && b != nil {
		encoded, err := json.Marshal(b)
		if err != nil {
			return registry.FailPort(err, "error")
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return registry.FailPort(err, "error")
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return registry.FailPort(err, "error")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return registry.FailPort(err, "error")
	}

	var parsed any
	_ = json.Unmarshal(raw, &parsed)

	return registry.Ok(map[string]any{
		"status_code": resp.StatusCode,
		"body":        parsed,
		"raw_body":    string(raw),
	})
}
