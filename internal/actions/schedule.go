package actions

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/prana-run/prana/internal/domain"
	"github.com/prana-run/prana/internal/registry"
)

// ScheduleWait suspends with SuspensionSchedule, computing its next
// wake_at from a standard five-field cron expression. The outside
// scheduler is responsible for actually firing at wake_at and calling
// resume; this handler only computes when that should be.
type ScheduleWait struct{ base }

func (ScheduleWait) Kind() domain.NodeKind { return domain.NodeKindAction }
func (ScheduleWait) InputPorts() []string  { return []string{domain.DefaultSuccessPort} }
func (ScheduleWait) OutputPorts() []string { return []string{domain.DefaultSuccessPort} }
func (ScheduleWait) Suspendable() bool     { return true }
func (ScheduleWait) ParamsSchema() registry.ParamsSchema {
	return registry.ParamsSchema{"cron": {Type: "string", Required: true}}
}

func (ScheduleWait) Execute(ctx context.Context, params, evalCtx map[string]any) registry.Result {
	expr, _ := params["cron"].(string)
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return registry.Fail(domain.NewError(domain.ErrParameter, "invalid cron expression", err))
	}

	next := schedule.Next(time.Now())
	return registry.Suspend(domain.SuspensionSchedule, map[string]any{
		"cron":    expr,
		"wake_at": next.Unix(),
	})
}

func (ScheduleWait) Resume(ctx context.Context, params, evalCtx, resumeData map[string]any) registry.Result {
	input, _ := evalCtx["$input"].(map[string]any)
	output, _ := input[domain.DefaultSuccessPort].(map[string]any)
	if output == nil {
		output = map[string]any{}
	}
	return registry.Ok(output)
}
