package dify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/petal-labs/dify-go/core"
)

func sseServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept = %q, want text/event-stream", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(body))
	}))
}

func collectStream(t *testing.T, stream *EventStream) ([]StreamChunk, error) {
	t.Helper()
	var chunks []StreamChunk
	for chunk := range stream.Ch {
		chunks = append(chunks, chunk)
	}
	return chunks, <-stream.Err
}

func TestChatMessagesStream(t *testing.T) {
	body := "data: {\"event\": \"message\", \"task_id\": \"t-1\", \"message_id\": \"m-1\", \"answer\": \"Hel\", \"created_at\": 1705395332}\n\n" +
		"data: {\"event\": \"message\", \"task_id\": \"t-1\", \"message_id\": \"m-1\", \"answer\": \"lo\", \"created_at\": 1705395332}\n\n" +
		"data: {\"event\": \"message_end\", \"task_id\": \"t-1\", \"message_id\": \"m-1\", \"metadata\": {\"usage\": {\"total_tokens\": 9}}}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	var answer string
	for _, chunk := range chunks[:2] {
		msg, ok := chunk.(*MessageStreamResponse)
		if !ok {
			t.Fatalf("chunk is %T, want *MessageStreamResponse", chunk)
		}
		answer += msg.Answer
	}
	if answer != "Hello" {
		t.Errorf("assembled answer = %q, want Hello", answer)
	}

	end, ok := chunks[2].(*MessageEndStreamResponse)
	if !ok {
		t.Fatalf("final chunk is %T, want *MessageEndStreamResponse", chunks[2])
	}
	if end.Metadata == nil || end.Metadata.Usage.TotalTokens != 9 {
		t.Errorf("Metadata = %+v, want usage total_tokens 9", end.Metadata)
	}
}

func TestStreamFiltersPings(t *testing.T) {
	// Pings appear as an SSE event name, as a JSON event field, or as a
	// bare data payload; all are dropped before decode.
	body := "event: ping\ndata: {}\n\n" +
		"data: ping\n\n" +
		"data: {\"event\": \"ping\"}\n\n" +
		"data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"x\"}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.CompletionMessagesStream(context.Background(), &CompletionRequest{
		Inputs: CompletionInputs{Query: "hi"},
		User:   "u1",
	})
	if err != nil {
		t.Fatalf("CompletionMessagesStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1 (pings filtered)", len(chunks))
	}
	if msg, ok := chunks[0].(*MessageStreamResponse); !ok || msg.Answer != "x" {
		t.Errorf("chunk = %#v", chunks[0])
	}
}

func TestStreamInBandError(t *testing.T) {
	body := "data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"partial\"}\n\n" +
		"data: {\"event\": \"error\", \"task_id\": \"t-1\", \"status\": 400, \"code\": \"completion_request_error\", \"message\": \"upstream refused\"}\n\n" +
		"data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"never delivered\"}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks before error, want 1", len(chunks))
	}
	if streamErr == nil {
		t.Fatal("expected terminal error")
	}
	if !errors.Is(streamErr, core.ErrCompletionRequest) {
		t.Errorf("got %v, want ErrCompletionRequest", streamErr)
	}
	var apiErr *core.APIError
	if !errors.As(streamErr, &apiErr) || apiErr.Status != 400 {
		t.Errorf("error detail = %+v", apiErr)
	}
}

func TestStreamErrorEventDefaultStatus(t *testing.T) {
	body := "data: {\"event\": \"error\", \"code\": \"mystery\", \"message\": \"no status given\"}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	_, streamErr := collectStream(t, stream)
	var apiErr *core.APIError
	if !errors.As(streamErr, &apiErr) {
		t.Fatalf("error is %T, want *core.APIError", streamErr)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d, want 500 default", apiErr.Status)
	}
}

func TestStreamNonSSEResponse(t *testing.T) {
	// A JSON error answer to a streaming request classifies synchronously;
	// no SSE parsing is attempted.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":400,"code":"app_unavailable","message":"App unavailable"}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	_, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if !errors.Is(err, core.ErrAppUnavailable) {
		t.Errorf("got %v, want ErrAppUnavailable", err)
	}
}

func TestStreamRejectsWrongContentType(t *testing.T) {
	// 200 with a JSON content type is still not an event stream.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"answer":"blocking payload"}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	_, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err == nil {
		t.Fatal("expected error for non-SSE content type")
	}
	if !errors.Is(err, core.ErrAPI) {
		t.Errorf("got %v, want ErrAPI classification", err)
	}
}

func TestStreamContentTypeWithCharset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.Write([]byte("data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"ok\"}\n\n"))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if streamErr != nil || len(chunks) != 1 {
		t.Errorf("chunks = %d, err = %v", len(chunks), streamErr)
	}
}

func TestStreamEarlyClose(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"first\"}\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		// Hold the connection open until the client hangs up.
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}

	select {
	case chunk := <-stream.Ch:
		if msg, ok := chunk.(*MessageStreamResponse); !ok || msg.Answer != "first" {
			t.Errorf("chunk = %#v", chunk)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}

	// Close is idempotent and must not surface the teardown as an error.
	stream.Close()
	stream.Close()

	select {
	case err, ok := <-stream.Err:
		if ok && err != nil {
			t.Errorf("close surfaced error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for stream teardown")
	}

	// A closed stream stays closed.
	if _, ok := <-stream.Ch; ok {
		t.Error("Ch delivered after close and drain")
	}
}

func TestStreamContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte("data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"first\"}\n\n"))
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(ctx, &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	select {
	case <-stream.Ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for first chunk")
	}

	cancel()

	var streamErr error
	deadline := time.After(5 * time.Second)
drain:
	for {
		select {
		case _, ok := <-stream.Ch:
			if !ok {
				streamErr = <-stream.Err
				break drain
			}
		case <-deadline:
			t.Fatal("timed out waiting for cancellation teardown")
		}
	}
	if !errors.Is(streamErr, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", streamErr)
	}
}

func TestWorkflowStream(t *testing.T) {
	body := "data: {\"event\": \"workflow_started\", \"task_id\": \"t-1\", \"workflow_run_id\": \"run-1\", \"data\": {\"id\": \"run-1\", \"workflow_id\": \"wf-1\", \"sequence_number\": 1, \"created_at\": 1705395332}}\n\n" +
		"data: {\"event\": \"node_finished\", \"task_id\": \"t-1\", \"workflow_run_id\": \"run-1\", \"data\": {\"id\": \"exec-1\", \"node_id\": \"n-1\", \"status\": \"succeeded\", \"elapsed_time\": 0.2}}\n\n" +
		"data: {\"event\": \"workflow_finished\", \"task_id\": \"t-1\", \"workflow_run_id\": \"run-1\", \"data\": {\"id\": \"run-1\", \"status\": \"succeeded\", \"outputs\": {\"text\": \"done\"}, \"total_steps\": 1}}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.RunWorkflowsStream(context.Background(), &WorkflowsRunRequest{User: "u1"})
	if err != nil {
		t.Fatalf("RunWorkflowsStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if streamErr != nil {
		t.Fatalf("stream error: %v", streamErr)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}

	last, ok := chunks[2].(*WorkflowsStreamResponse)
	if !ok {
		t.Fatalf("final chunk is %T", chunks[2])
	}
	if last.ChunkEvent() != StreamEventWorkflowFinished {
		t.Errorf("final event = %q", last.ChunkEvent())
	}
	d, err := last.WorkflowFinishedData()
	if err != nil {
		t.Fatalf("WorkflowFinishedData: %v", err)
	}
	if d.Status != WorkflowStatusSucceeded || d.Outputs["text"] != "done" {
		t.Errorf("data = %+v", d)
	}
}

func TestStreamUnknownTagTerminates(t *testing.T) {
	body := "data: {\"event\": \"message\", \"task_id\": \"t-1\", \"answer\": \"a\"}\n\n" +
		"data: {\"event\": \"telepathy\", \"task_id\": \"t-1\"}\n\n"
	server := sseServer(t, body)
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	stream, err := client.ChatMessagesStream(context.Background(), &ChatRequest{Query: "hi", User: "u1"})
	if err != nil {
		t.Fatalf("ChatMessagesStream: %v", err)
	}
	defer stream.Close()

	chunks, streamErr := collectStream(t, stream)
	if len(chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(chunks))
	}
	if !errors.Is(streamErr, core.ErrDecode) {
		t.Errorf("got %v, want ErrDecode", streamErr)
	}
}
