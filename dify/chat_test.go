package dify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChatMessagesBlocking(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat-messages" {
			t.Errorf("path = %s, want /chat-messages", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["query"] != "what is dify" {
			t.Errorf("query = %v", body["query"])
		}
		// Inputs must serialize as an object even when the caller left it nil.
		if _, ok := body["inputs"].(map[string]any); !ok {
			t.Errorf("inputs = %v (%T), want object", body["inputs"], body["inputs"])
		}
		if body["conversation_id"] != "conv-1" {
			t.Errorf("conversation_id = %v, want conv-1", body["conversation_id"])
		}
		if body["auto_generate_name"] != false {
			t.Errorf("auto_generate_name = %v, want false", body["auto_generate_name"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"message_id": "msg-1",
			"conversation_id": "conv-1",
			"mode": "chat",
			"answer": "An LLMOps platform.",
			"created_at": 1705395332
		}`))
	}))
	defer server.Close()

	off := false
	client := New("test-key", WithBaseURL(server.URL))
	resp, err := client.ChatMessages(context.Background(), &ChatRequest{
		Query:            "what is dify",
		User:             "u1",
		ConversationID:   "conv-1",
		AutoGenerateName: &off,
	})
	if err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
	if resp.ConversationID != "conv-1" {
		t.Errorf("ConversationID = %q, want conv-1", resp.ConversationID)
	}
	if resp.Mode != ModeChat {
		t.Errorf("Mode = %q, want chat", resp.Mode)
	}
}

func TestChatRequestOmitsAutoGenerateNameByDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if _, present := body["auto_generate_name"]; present {
			t.Error("auto_generate_name present, want omitted")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message_id":"msg-1","mode":"chat","answer":"ok"}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	if _, err := client.ChatMessages(context.Background(), &ChatRequest{Query: "hi", User: "u1"}); err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
}

func TestChatMessagesFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Files []File `json:"files"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(body.Files) != 1 {
			t.Fatalf("files = %v, want 1", body.Files)
		}
		f := body.Files[0]
		if f.Type != FileTypeImage || f.TransferMethod != TransferMethodLocalFile || f.UploadFileID != "file-1" {
			t.Errorf("file = %+v", f)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message_id":"msg-1","mode":"chat","answer":"ok"}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	_, err := client.ChatMessages(context.Background(), &ChatRequest{
		Query: "describe this image",
		User:  "u1",
		Files: []File{{
			Type:           FileTypeImage,
			TransferMethod: TransferMethodLocalFile,
			UploadFileID:   "file-1",
		}},
	})
	if err != nil {
		t.Fatalf("ChatMessages: %v", err)
	}
}
