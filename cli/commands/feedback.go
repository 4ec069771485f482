package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dify-go/dify"
)

var feedbackRating string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <message-id>",
	Short: "Rate a message or fetch suggested follow-ups",
	Long: `Submit end-user feedback on a message.

Examples:
  dify feedback <message-id> --rating like
  dify feedback <message-id> --rating dislike
  dify feedback <message-id>            (retract a previous rating)`,
	Args: cobra.ExactArgs(1),
	RunE: runFeedback,
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <message-id>",
	Short: "Fetch suggested follow-up questions",
	Args:  cobra.ExactArgs(1),
	RunE:  runSuggest,
}

func init() {
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(suggestCmd)

	feedbackCmd.Flags().StringVar(&feedbackRating, "rating", "", "like, dislike, or empty to retract")
}

func runFeedback(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	var rating dify.Rating
	if feedbackRating != "" {
		rating, err = dify.ParseRating(feedbackRating)
		if err != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("invalid rating %q: use like or dislike", feedbackRating))
		}
	}

	resp, err := client.MessageFeedback(context.Background(), args[0], &dify.FeedbackRequest{
		Rating: rating,
		User:   effectiveUser(),
	})
	if err != nil {
		return handleAPIError(err)
	}

	if IsJSONOutput() {
		return outputJSON(resp)
	}
	fmt.Println(resp.Result)
	return nil
}

func runSuggest(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	resp, err := client.SuggestedMessages(context.Background(), args[0], &dify.ChatSuggestRequest{
		User: effectiveUser(),
	})
	if err != nil {
		return handleAPIError(err)
	}

	if IsJSONOutput() {
		return outputJSON(resp)
	}
	for _, suggestion := range resp.Data {
		fmt.Println("-", suggestion)
	}
	return nil
}
