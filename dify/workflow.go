package dify

import (
	"context"
	"net/http"
)

// WorkflowStatus is the terminal-or-running status of a workflow or node
// execution.
type WorkflowStatus string

// Workflow execution statuses.
const (
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusSucceeded WorkflowStatus = "succeeded"
	WorkflowStatusFailed    WorkflowStatus = "failed"
	WorkflowStatusStopped   WorkflowStatus = "stopped"
)

var workflowStatusValues = []WorkflowStatus{
	WorkflowStatusRunning,
	WorkflowStatusSucceeded,
	WorkflowStatusFailed,
	WorkflowStatusStopped,
}

// ParseWorkflowStatus resolves raw to a WorkflowStatus.
func ParseWorkflowStatus(raw string) (WorkflowStatus, error) {
	return parseEnum("WorkflowStatus", raw, workflowStatusValues)
}

// ExecutionMetadata carries token and cost accounting for a node run.
type ExecutionMetadata struct {
	TotalTokens *int    `json:"total_tokens,omitempty"`
	TotalPrice  *string `json:"total_price,omitempty"`
	Currency    *string `json:"currency,omitempty"`
}

// WorkflowStartedData is the data payload of a workflow_started event.
type WorkflowStartedData struct {
	ID             string         `json:"id"` // workflow run id
	WorkflowID     string         `json:"workflow_id"`
	SequenceNumber int            `json:"sequence_number"`
	Inputs         map[string]any `json:"inputs,omitempty"`
	CreatedAt      int64          `json:"created_at"`
}

// NodeStartedData is the data payload of a node_started event.
type NodeStartedData struct {
	ID                string         `json:"id"` // node execution id
	NodeID            string         `json:"node_id"`
	NodeType          string         `json:"node_type"`
	Title             string         `json:"title"`
	Index             int            `json:"index"`
	PredecessorNodeID string         `json:"predecessor_node_id,omitempty"`
	Inputs            map[string]any `json:"inputs,omitempty"`
	Extras            map[string]any `json:"extras,omitempty"`
	CreatedAt         int64          `json:"created_at"`
}

// NodeFinishedData is the data payload of a node_finished event.
type NodeFinishedData struct {
	ID                string             `json:"id"`
	NodeID            string             `json:"node_id"`
	NodeType          string             `json:"node_type"`
	Title             string             `json:"title"`
	Index             int                `json:"index"`
	PredecessorNodeID string             `json:"predecessor_node_id,omitempty"`
	Inputs            map[string]any     `json:"inputs,omitempty"`
	ProcessData       map[string]any     `json:"process_data,omitempty"`
	Outputs           map[string]any     `json:"outputs,omitempty"`
	Status            WorkflowStatus     `json:"status"`
	Error             string             `json:"error,omitempty"`
	ElapsedTime       float64            `json:"elapsed_time"` // seconds
	ExecutionMetadata *ExecutionMetadata `json:"execution_metadata,omitempty"`
	Extras            map[string]any     `json:"extras,omitempty"`
	Files             []map[string]any   `json:"files,omitempty"`
	CreatedAt         int64              `json:"created_at"`
	FinishedAt        int64              `json:"finished_at"`
}

// WorkflowFinishedData is the data payload of a workflow_finished event
// and the Data field of a blocking workflow run.
type WorkflowFinishedData struct {
	ID          string           `json:"id"`
	WorkflowID  string           `json:"workflow_id"`
	Status      WorkflowStatus   `json:"status"`
	Outputs     map[string]any   `json:"outputs,omitempty"`
	Error       string           `json:"error,omitempty"`
	ElapsedTime float64          `json:"elapsed_time"`
	TotalTokens int              `json:"total_tokens"`
	TotalSteps  int              `json:"total_steps"`
	CreatedBy   map[string]any   `json:"created_by,omitempty"`
	Files       []map[string]any `json:"files,omitempty"`
	CreatedAt   int64            `json:"created_at"`
	FinishedAt  int64            `json:"finished_at"`
}

// WorkflowsRunRequest is the request body for running a workflow.
type WorkflowsRunRequest struct {
	// Inputs carries the workflow's input variables. Serialized as {}
	// when nil.
	Inputs map[string]any `json:"inputs"`

	// ResponseMode selects blocking or streaming delivery.
	ResponseMode ResponseMode `json:"response_mode"`

	// User is the end-user identifier.
	User string `json:"user"`

	// ConversationID continues an existing conversation when set.
	ConversationID string `json:"conversation_id,omitempty"`

	// Files to pass to the workflow.
	Files []File `json:"files,omitempty"`
}

// WorkflowsRunResponse is the blocking-mode result of a workflow run.
type WorkflowsRunResponse struct {
	LogID  string               `json:"log_id"`
	TaskID string               `json:"task_id"`
	Data   WorkflowFinishedData `json:"data"`
}

func (r *WorkflowsRunRequest) normalized(mode ResponseMode) WorkflowsRunRequest {
	body := *r
	body.ResponseMode = mode
	if body.Inputs == nil {
		body.Inputs = map[string]any{}
	}
	return body
}

// RunWorkflows runs a workflow in blocking mode and waits for the final
// result. The request's ResponseMode must be empty or blocking.
func (c *Client) RunWorkflows(ctx context.Context, req *WorkflowsRunRequest) (*WorkflowsRunResponse, error) {
	mode, err := blockingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := req.normalized(mode)

	var out WorkflowsRunResponse
	if err := c.do(ctx, http.MethodPost, endpointRunWorkflows, &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunWorkflowsStream runs a workflow in streaming mode. The request's
// ResponseMode must be empty or streaming. The caller owns the returned
// stream and must Close it.
func (c *Client) RunWorkflowsStream(ctx context.Context, req *WorkflowsRunRequest) (*EventStream, error) {
	mode, err := streamingMode(req.ResponseMode)
	if err != nil {
		return nil, err
	}
	body := req.normalized(mode)

	return c.openStream(ctx, endpointRunWorkflows, &body, BuildWorkflowStreamChunk)
}

// StopWorkflows stops an in-progress streaming workflow run. The user
// must match the one that started the run.
func (c *Client) StopWorkflows(ctx context.Context, taskID string, req *StopRequest) (*StopResponse, error) {
	path := expandPath(endpointStopWorkflows, map[string]string{"task_id": taskID})

	var out StopResponse
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
