package dify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/petal-labs/dify-go/core"
)

func TestUploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/files/upload" {
			t.Errorf("path = %s, want /files/upload", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("user"); got != "u1" {
			t.Errorf("user = %q, want u1", got)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "doc.png" {
			t.Errorf("filename = %q, want doc.png", header.Filename)
		}
		if got := header.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("part content type = %q, want image/png", got)
		}
		contents, _ := io.ReadAll(file)
		if string(contents) != "fake-png-bytes" {
			t.Errorf("contents = %q", contents)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "file-1",
			"name": "doc.png",
			"size": 14,
			"extension": "png",
			"mime_type": "image/png",
			"created_by": "u1",
			"created_at": 1705395332
		}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	resp, err := client.UploadFile(context.Background(), FileUpload{
		Filename: "doc.png",
		Reader:   strings.NewReader("fake-png-bytes"),
		MimeType: "image/png",
	}, &UploadFileRequest{User: "u1"})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if resp.ID != "file-1" || resp.Size != 14 || resp.MimeType != "image/png" {
		t.Errorf("response = %+v", resp)
	}
}

func TestUploadFileWithoutMimeType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if got := header.Header.Get("Content-Type"); got != "application/octet-stream" {
			t.Errorf("part content type = %q, want application/octet-stream", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"file-2","name":"notes.txt","size":5}`))
	}))
	defer server.Close()

	client := New("test-key", WithBaseURL(server.URL))
	resp, err := client.UploadFile(context.Background(), FileUpload{
		Filename: "notes.txt",
		Reader:   strings.NewReader("hello"),
	}, &UploadFileRequest{User: "u1"})
	if err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if resp.ID != "file-2" {
		t.Errorf("ID = %q, want file-2", resp.ID)
	}
}

func TestUploadFileErrorClassification(t *testing.T) {
	tests := []struct {
		code     string
		sentinel error
	}{
		{"no_file_uploaded", core.ErrNoFileUploaded},
		{"too_many_files", core.ErrTooManyFiles},
		{"file_too_large", core.ErrFileTooLarge},
		{"unsupported_file_type", core.ErrUnsupportedFileType},
		{"s3_connection_failed", core.ErrStorageConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"status":400,"code":"` + tt.code + `","message":"rejected"}`))
			}))
			defer server.Close()

			client := New("test-key", WithBaseURL(server.URL))
			_, err := client.UploadFile(context.Background(), FileUpload{
				Filename: "doc.png",
				Reader:   strings.NewReader("x"),
			}, &UploadFileRequest{User: "u1"})
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("got %v, want %v", err, tt.sentinel)
			}
		})
	}
}
