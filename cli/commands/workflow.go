package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/dify"
)

var (
	workflowInputs     []string
	workflowInputsJSON string
	workflowStream     bool
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run a workflow app",
	Long: `Execute a Dify workflow application.

Examples:
  dify workflow --app research --input topic=golang
  dify workflow --inputs-json '{"topic":"golang","depth":2}' --stream`,
	RunE: runWorkflow,
}

func init() {
	rootCmd.AddCommand(workflowCmd)

	workflowCmd.Flags().StringArrayVar(&workflowInputs, "input", nil, "Workflow input as key=value (repeatable)")
	workflowCmd.Flags().StringVar(&workflowInputsJSON, "inputs-json", "", "Workflow inputs as a JSON object")
	workflowCmd.Flags().BoolVar(&workflowStream, "stream", false, "Stream node progress")
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	inputs, err := workflowInputMap()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	req := &dify.WorkflowsRunRequest{
		Inputs: inputs,
		User:   effectiveUser(),
	}

	ctx := context.Background()

	if !workflowStream {
		resp, err := client.RunWorkflows(ctx, req)
		if err != nil {
			return handleAPIError(err)
		}
		if IsJSONOutput() {
			return outputJSON(resp)
		}
		printWorkflowResult(&resp.Data)
		return nil
	}

	stream, err := client.RunWorkflowsStream(ctx, req)
	if err != nil {
		return handleAPIError(err)
	}
	defer stream.Close()

	var final *dify.WorkflowFinishedData
	for chunk := range stream.Ch {
		wf, ok := chunk.(*dify.WorkflowsStreamResponse)
		if !ok {
			continue
		}
		switch wf.ChunkEvent() {
		case dify.StreamEventWorkflowStarted:
			if d, err := wf.WorkflowStartedData(); err == nil {
				fmt.Fprintf(os.Stderr, "workflow started: run %s\n", d.ID)
			}
		case dify.StreamEventNodeStarted:
			if d, err := wf.NodeStartedData(); err == nil {
				fmt.Fprintf(os.Stderr, "  node %d started: %s\n", d.Index, d.Title)
			}
		case dify.StreamEventNodeFinished:
			if d, err := wf.NodeFinishedData(); err == nil {
				fmt.Fprintf(os.Stderr, "  node %d finished: %s (%s, %.2fs)\n", d.Index, d.Title, d.Status, d.ElapsedTime)
			}
		case dify.StreamEventWorkflowFinished:
			if d, err := wf.WorkflowFinishedData(); err == nil {
				final = d
			}
		}
	}

	if err := <-stream.Err; err != nil {
		return handleAPIError(err)
	}

	if final == nil {
		return exitWithCode(ExitAPI, fmt.Errorf("stream ended without a workflow_finished event"))
	}
	if IsJSONOutput() {
		return outputJSON(final)
	}
	printWorkflowResult(final)
	return nil
}

func workflowInputMap() (map[string]any, error) {
	if workflowInputsJSON != "" {
		if len(workflowInputs) > 0 {
			return nil, fmt.Errorf("--input and --inputs-json are mutually exclusive")
		}
		var inputs map[string]any
		if err := json.Unmarshal([]byte(workflowInputsJSON), &inputs); err != nil {
			return nil, fmt.Errorf("invalid --inputs-json: %w", err)
		}
		return inputs, nil
	}
	return parseInputs(workflowInputs)
}

func printWorkflowResult(data *dify.WorkflowFinishedData) {
	fmt.Printf("status: %s (%d steps, %d tokens, %.2fs)\n",
		data.Status, data.TotalSteps, data.TotalTokens, data.ElapsedTime)
	if data.Error != "" {
		fmt.Printf("error: %s\n", data.Error)
	}
	for key, value := range data.Outputs {
		if s, ok := value.(string); ok {
			fmt.Printf("%s: %s\n", key, s)
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			fmt.Printf("%s: %v\n", key, value)
			continue
		}
		fmt.Printf("%s: %s\n", key, encoded)
	}
}
