package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/dify"
)

var (
	chatQuery        string
	chatConversation string
	chatInputs       []string
	chatStream       bool
	chatNoTitle      bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Send a message to a chat app",
	Long: `Send a message to a Dify chat application.

Examples:
  dify chat --app support --query "How do I reset my password?"
  dify chat --query "Hello" --stream
  dify chat --query "Hello" --conversation <id> --json`,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatQuery, "query", "", "User message (required)")
	chatCmd.Flags().StringVar(&chatConversation, "conversation", "", "Conversation ID to continue")
	chatCmd.Flags().StringArrayVar(&chatInputs, "input", nil, "App input as key=value (repeatable)")
	chatCmd.Flags().BoolVar(&chatStream, "stream", false, "Enable streaming output")
	chatCmd.Flags().BoolVar(&chatNoTitle, "no-title", false, "Disable automatic conversation titling")

	_ = chatCmd.MarkFlagRequired("query")
}

func runChat(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	inputs, err := parseInputs(chatInputs)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	req := &dify.ChatRequest{
		Query:          chatQuery,
		Inputs:         inputs,
		User:           effectiveUser(),
		ConversationID: chatConversation,
	}
	if chatNoTitle {
		off := false
		req.AutoGenerateName = &off
	}

	ctx := context.Background()

	if chatStream {
		return runStreamingChat(ctx, client, req)
	}
	return runBlockingChat(ctx, client, req)
}

func runBlockingChat(ctx context.Context, client *dify.Client, req *dify.ChatRequest) error {
	resp, err := client.ChatMessages(ctx, req)
	if err != nil {
		return handleAPIError(err)
	}

	if IsJSONOutput() {
		return outputJSON(resp)
	}

	fmt.Printf("> %s\n", req.Query)
	fmt.Println(resp.Answer)

	if IsVerbose() && resp.Metadata != nil {
		printUsage(&resp.Metadata.Usage)
	}
	return nil
}

func runStreamingChat(ctx context.Context, client *dify.Client, req *dify.ChatRequest) error {
	stream, err := client.ChatMessagesStream(ctx, req)
	if err != nil {
		return handleAPIError(err)
	}
	defer stream.Close()

	fmt.Printf("> %s\n", req.Query)

	var metadata *dify.Metadata

	for chunk := range stream.Ch {
		switch c := chunk.(type) {
		case *dify.MessageStreamResponse:
			fmt.Print(c.Answer)
		case *dify.AgentMessageStreamResponse:
			fmt.Print(c.Answer)
		case *dify.AgentThoughtStreamResponse:
			if IsVerbose() && c.Tool != "" {
				fmt.Fprintf(os.Stderr, "\n[tool: %s]\n", c.Tool)
			}
		case *dify.MessageReplaceStreamResponse:
			// Replacement discards everything printed so far; start over
			// on a fresh line.
			fmt.Printf("\n%s", c.Answer)
		case *dify.MessageEndStreamResponse:
			metadata = c.Metadata
		}
	}

	// Print final newline
	fmt.Println()

	if err := <-stream.Err; err != nil {
		return handleAPIError(err)
	}

	if IsVerbose() && metadata != nil {
		printUsage(&metadata.Usage)
	}
	return nil
}

func printUsage(usage *dify.Usage) {
	fmt.Fprintf(os.Stderr, "Usage: %d prompt + %d completion = %d total tokens\n",
		usage.PromptTokens,
		usage.CompletionTokens,
		usage.TotalTokens)
}
