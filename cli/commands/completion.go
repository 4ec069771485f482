package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/dify"
)

var (
	completionQuery  string
	completionInputs []string
	completionStream bool
)

var completionCmd = &cobra.Command{
	Use:   "completion",
	Short: "Run a completion app",
	Long: `Send a query to a Dify text completion application.

Examples:
  dify completion --app translator --query "Bonjour" --input target_lang=en
  dify completion --query "Summarize this" --stream`,
	RunE: runCompletion,
}

func init() {
	rootCmd.AddCommand(completionCmd)

	completionCmd.Flags().StringVar(&completionQuery, "query", "", "Input text (required)")
	completionCmd.Flags().StringArrayVar(&completionInputs, "input", nil, "App input as key=value (repeatable)")
	completionCmd.Flags().BoolVar(&completionStream, "stream", false, "Enable streaming output")

	_ = completionCmd.MarkFlagRequired("query")
}

func runCompletion(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	extra, err := parseInputs(completionInputs)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	req := &dify.CompletionRequest{
		Inputs: dify.CompletionInputs{Query: completionQuery, Extra: extra},
		User:   effectiveUser(),
	}

	ctx := context.Background()

	if !completionStream {
		resp, err := client.CompletionMessages(ctx, req)
		if err != nil {
			return handleAPIError(err)
		}
		if IsJSONOutput() {
			return outputJSON(resp)
		}
		fmt.Println(resp.Answer)
		if IsVerbose() && resp.Metadata != nil {
			printUsage(&resp.Metadata.Usage)
		}
		return nil
	}

	stream, err := client.CompletionMessagesStream(ctx, req)
	if err != nil {
		return handleAPIError(err)
	}
	defer stream.Close()

	var metadata *dify.Metadata
	for chunk := range stream.Ch {
		switch c := chunk.(type) {
		case *dify.MessageStreamResponse:
			fmt.Print(c.Answer)
		case *dify.MessageReplaceStreamResponse:
			fmt.Printf("\n%s", c.Answer)
		case *dify.MessageEndStreamResponse:
			metadata = c.Metadata
		}
	}
	fmt.Println()

	if err := <-stream.Err; err != nil {
		return handleAPIError(err)
	}

	if IsVerbose() && metadata != nil {
		printUsage(&metadata.Usage)
	}
	return nil
}
