package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/petal-labs/dify-go/cli/keystore"
	"github.com/petal-labs/dify-go/core"
	"github.com/petal-labs/dify-go/dify"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitAPI        = 2
	ExitNetwork    = 3
)

// newClient builds a dify client for the selected app, resolving the API
// key from the keystore (or DIFY_API_KEY when no app is configured).
func newClient() (*dify.Client, error) {
	appName := GetApp()
	if appName == "" {
		// No app selected; fall back to the environment.
		client, err := dify.NewFromEnv()
		if err != nil {
			return nil, exitWithCode(ExitValidation, fmt.Errorf("no app selected: use --app, set default_app in config, or set %s", dify.DefaultAPIKeyEnvVar))
		}
		return client, nil
	}

	ks, err := keystore.NewKeystore()
	if err != nil {
		return nil, exitWithCode(ExitValidation, fmt.Errorf("failed to open keystore: %w", err))
	}

	apiKey, err := ks.Get(appName)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return nil, exitWithCode(ExitValidation, fmt.Errorf("no API key for %s: run 'dify keys set %s' first", appName, appName))
		}
		return nil, exitWithCode(ExitValidation, fmt.Errorf("failed to get API key: %w", err))
	}

	var opts []dify.Option
	if cfg := GetConfig(); cfg != nil {
		if ac := cfg.GetApp(appName); ac != nil && ac.BaseURL != "" {
			opts = append(opts, dify.WithBaseURL(ac.BaseURL))
		}
	}

	return dify.New(apiKey, opts...), nil
}

// effectiveUser returns the end-user identifier: the --user flag, the
// config value, or a random id for this invocation.
func effectiveUser() string {
	if user != "" {
		return user
	}
	return "cli-" + uuid.NewString()
}

func handleAPIError(err error) error {
	var apiErr *core.APIError
	if errors.As(err, &apiErr) {
		if IsJSONOutput() {
			outputErrorJSON(apiErr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
			if apiErr.Code != "" {
				fmt.Fprintf(os.Stderr, "  code: %s, status: %d\n", apiErr.Code, apiErr.Status)
			}
		}
		return exitWithCode(ExitAPI, err)
	}

	if errors.Is(err, core.ErrInvalidResponseMode) {
		if IsJSONOutput() {
			outputSimpleErrorJSON("validation_error", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitValidation, err)
	}

	// Transport and other errors
	if IsJSONOutput() {
		outputSimpleErrorJSON("network_error", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitNetwork, err)
}

func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func outputErrorJSON(apiErr *core.APIError) {
	output := map[string]any{
		"error": map[string]any{
			"code":    apiErr.Code,
			"status":  apiErr.Status,
			"message": apiErr.Message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func outputSimpleErrorJSON(errType, message string) {
	output := map[string]any{
		"error": map[string]any{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// parseInputs reads key=value pairs into an inputs map.
func parseInputs(pairs []string) (map[string]any, error) {
	inputs := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := cutKeyValue(pair)
		if !ok {
			return nil, fmt.Errorf("invalid input %q: expected key=value", pair)
		}
		inputs[key] = value
	}
	return inputs, nil
}

func cutKeyValue(pair string) (string, string, bool) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			if i == 0 {
				return "", "", false
			}
			return pair[:i], pair[i+1:], true
		}
	}
	return "", "", false
}
