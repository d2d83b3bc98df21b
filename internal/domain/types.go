package domain

// NodeKind distinguishes trigger nodes (which seed an execution) from
// action nodes (which run mid-graph).
type NodeKind string

const (
	NodeKindTrigger NodeKind = "trigger"
	NodeKindAction  NodeKind = "action"
)

// WildcardPort is the sentinel output-port name meaning "the handler emits
// a dynamically chosen port name, matched literally against connections".
const WildcardPort = "*"

// DefaultSuccessPort is used when a handler's ok(output) result carries no
// explicit port and the handler declares no output_ports.
const DefaultSuccessPort = "main"

// SuspensionKind is a string surfaced to the outside scheduler describing
// why a node suspended.
type SuspensionKind string

const (
	SuspensionWebhook             SuspensionKind = "webhook"
	SuspensionInterval            SuspensionKind = "interval"
	SuspensionSchedule            SuspensionKind = "schedule"
	SuspensionSubWorkflowSync     SuspensionKind = "sub_workflow_sync"
	SuspensionSubWorkflowAsync    SuspensionKind = "sub_workflow_async"
	SuspensionSubWorkflowFireForget SuspensionKind = "sub_workflow_fire_forget"
	SuspensionWebhookResponse     SuspensionKind = "webhook_response"
	SuspensionRetry               SuspensionKind = "retry"
)

// NodeExecutionStatus is the lifecycle status of one NodeExecution entry.
type NodeExecutionStatus string

const (
	NodeStatusPending   NodeExecutionStatus = "pending"
	NodeStatusRunning   NodeExecutionStatus = "running"
	NodeStatusCompleted NodeExecutionStatus = "completed"
	NodeStatusFailed    NodeExecutionStatus = "failed"
	NodeStatusSuspended NodeExecutionStatus = "suspended"
)

// ExecutionStatus is the lifecycle status of the overall Execution.
type ExecutionStatus string

const (
	ExecutionPending   ExecutionStatus = "pending"
	ExecutionRunning   ExecutionStatus = "running"
	ExecutionSuspended ExecutionStatus = "suspended"
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ExecutionMode distinguishes a fire-and-wait caller from a fire-and-poll one.
type ExecutionMode string

const (
	ModeSync  ExecutionMode = "sync"
	ModeAsync ExecutionMode = "async"
)

// SubWorkflowExecutionMode is the execution_mode field of a sub-workflow
// suspension envelope (distinct from ExecutionMode above, which describes
// the parent caller's own relationship to the engine).
type SubWorkflowExecutionMode string

const (
	SubWorkflowSync        SubWorkflowExecutionMode = "sync"
	SubWorkflowAsync       SubWorkflowExecutionMode = "async"
	SubWorkflowFireForget  SubWorkflowExecutionMode = "fire_and_forget"
)

// SubWorkflowBatchMode controls how a suspended node's multiple pending
// sub-workflow invocations are awaited.
type SubWorkflowBatchMode string

const (
	BatchAll    SubWorkflowBatchMode = "all"
	BatchSingle SubWorkflowBatchMode = "single"
)

// SubWorkflowFailureStrategy controls parent behavior when a child fails.
type SubWorkflowFailureStrategy string

const (
	FailParent SubWorkflowFailureStrategy = "fail_parent"
	ContinueOnFailure SubWorkflowFailureStrategy = "continue"
)
