package actions

import (
	"context"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// WebhookWait suspends until an external caller delivers a payload to the
// suspension's webhook id (spec.md §8 scenario 6). The id is the
// webhook_id param, or the workflow id when that param is empty. Prepare
// returns the node key, which the engine stores per node but does not pass
// back to Execute.
type WebhookWait struct{ base }

func (WebhookWait) Kind() domain.NodeKind  { return domain.NodeKindAction }
func (WebhookWait) InputPorts() []string   { return []string{domain.DefaultSuccessPort} }
func (WebhookWait) OutputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (WebhookWait) Suspendable() bool      { return true }
func (WebhookWait) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{"webhook_id": {Type: "string"}}
}

func (WebhookWait) Prepare(ctx context.Context, node domain.Node) (map[string]any, error) {
	return map[string]any{"webhook_id": node.Key}, nil
}

func (WebhookWait) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	id, _ := params["webhook_id"].(string)
	if id == "" {
		if execInfo, ok := evalCtx["$execution"].(map[string]any); ok {
			id, _ = execInfo["workflow_id"].(string)
		}
	}
	return registry.Suspend(domain.SuspensionWebhook, map[string]any{"id": id})
}

func (WebhookWait) Resume(ctx context.Context, params, evalCtx, resumeData map[string]any) registry.Result {
	payload, _ := resumeData["payload"].(map[string]any)
	if payload == nil {
		payload = resumeData
	}
	return registry.Ok(payload)
}
