package dify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/petal-labs/dify-go/core"
)

// FileUpload describes a file to send to the upload endpoint.
type FileUpload struct {
	// Filename as it should appear server-side.
	Filename string

	// Reader supplies the file contents.
	Reader io.Reader

	// MimeType is optional; when empty the multipart part carries
	// application/octet-stream.
	MimeType string
}

// UploadFileRequest is the metadata accompanying a file upload.
type UploadFileRequest struct {
	// User is the end-user identifier the file belongs to.
	User string `json:"user"`
}

// UploadFileResponse describes an uploaded file. Its ID can be referenced
// from message Files with TransferMethodLocalFile.
type UploadFileResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	MimeType  string `json:"mime_type"`
	CreatedBy string `json:"created_by"`
	CreatedAt int64  `json:"created_at"`
}

var partQuoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// UploadFile uploads a file for later use in messages or workflows.
func (c *Client) UploadFile(ctx context.Context, file FileUpload, req *UploadFileRequest) (*UploadFileResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("user", req.User); err != nil {
		return nil, fmt.Errorf("dify: encode upload form: %w", err)
	}

	var part io.Writer
	var err error
	if file.MimeType != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`,
			partQuoteEscaper.Replace(file.Filename)))
		header.Set("Content-Type", file.MimeType)
		part, err = writer.CreatePart(header)
	} else {
		part, err = writer.CreateFormFile("file", file.Filename)
	}
	if err != nil {
		return nil, fmt.Errorf("dify: encode upload form: %w", err)
	}
	if _, err := io.Copy(part, file.Reader); err != nil {
		return nil, fmt.Errorf("dify: read upload contents: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("dify: encode upload form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpointFilesUpload, &buf)
	if err != nil {
		return nil, fmt.Errorf("dify: build request: %w", err)
	}
	httpReq.Header = c.buildHeaders()
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	start := time.Now()
	c.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		Endpoint: endpointFilesUpload,
		Method:   http.MethodPost,
		Start:    start,
	})

	resp, err := c.config.HTTPClient.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("dify: POST %s: %w", endpointFilesUpload, err)
		c.emitRequestEnd(endpointFilesUpload, http.MethodPost, start, err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := classifyResponse(resp)
		c.emitRequestEnd(endpointFilesUpload, http.MethodPost, start, err)
		return nil, err
	}

	var out UploadFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		err = newDecodeError(err)
		c.emitRequestEnd(endpointFilesUpload, http.MethodPost, start, err)
		return nil, err
	}

	c.emitRequestEnd(endpointFilesUpload, http.MethodPost, start, nil)
	return &out, nil
}
