package dify

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/petal-labs/dify-go/core"
)

// EventStream delivers typed stream chunks from a streaming call.
//
// Channel rules:
//   - Ch delivers chunks in arrival order and is closed when the stream
//     ends, for any reason.
//   - Err delivers at most one error, then is closed. Receive from it
//     after Ch closes to learn whether the stream ended cleanly.
//   - A closed Ch with no error on Err means the server finished the
//     stream normally.
//
// A stream is not restartable: once Ch is closed it stays closed.
type EventStream struct {
	// Ch delivers decoded chunks. Closed when the stream ends.
	Ch <-chan StreamChunk

	// Err delivers the terminal error, if any. Closed after Ch.
	Err <-chan error

	closeOnce sync.Once
	done      chan struct{}
	body      io.Closer
}

// Close releases the stream's network resources. It is safe to call
// multiple times and safe to call concurrently with channel reads.
// Chunks still buffered in Ch remain readable after Close.
func (s *EventStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.body != nil {
			s.body.Close()
		}
	})
	return nil
}

// isEventStream reports whether resp is a successful SSE response. The
// media type must be exactly text/event-stream; parameters like charset
// are ignored.
func isEventStream(resp *http.Response) bool {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	ct := resp.Header.Get("Content-Type")
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		// Fall back to a manual split for slightly malformed headers.
		mediaType = strings.TrimSpace(strings.Split(ct, ";")[0])
	}
	return strings.EqualFold(mediaType, "text/event-stream")
}

// openStream issues a streaming POST and returns an EventStream fed by a
// background reader goroutine. When the server answers with anything but
// a successful text/event-stream response, the body is consumed, the
// connection released, and the classified failure returned synchronously.
func (c *Client) openStream(ctx context.Context, endpoint string, body any, build chunkBuilder) (*EventStream, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, newDecodeError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("dify: build request: %w", err)
	}
	req.Header = c.buildHeaders()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	start := time.Now()
	c.config.Telemetry.OnRequestStart(core.RequestStartEvent{
		Endpoint: endpoint,
		Method:   http.MethodPost,
		Start:    start,
	})

	resp, err := c.config.HTTPClient.Do(req)
	if err != nil {
		err = fmt.Errorf("dify: POST %s: %w", endpoint, err)
		c.emitRequestEnd(endpoint, http.MethodPost, start, err)
		return nil, err
	}

	if !isEventStream(resp) {
		defer resp.Body.Close()
		err := classifyResponse(resp)
		c.emitRequestEnd(endpoint, http.MethodPost, start, err)
		return nil, err
	}

	chunkCh := make(chan StreamChunk, 16)
	errCh := make(chan error, 1)
	stream := &EventStream{
		Ch:   chunkCh,
		Err:  errCh,
		done: make(chan struct{}),
		body: resp.Body,
	}

	go c.pumpStream(ctx, stream, resp.Body, build, chunkCh, errCh, endpoint, start)

	return stream, nil
}

// pumpStream reads SSE frames off the wire, decodes them, and feeds the
// stream's channels until EOF, an in-band error, cancellation, or Close.
func (c *Client) pumpStream(
	ctx context.Context,
	stream *EventStream,
	body io.ReadCloser,
	build chunkBuilder,
	chunkCh chan<- StreamChunk,
	errCh chan<- error,
	endpoint string,
	start time.Time,
) {
	var terminal error
	defer func() {
		close(chunkCh)
		if terminal != nil {
			errCh <- terminal
		}
		close(errCh)
		stream.Close()
		c.emitRequestEnd(endpoint, http.MethodPost, start, terminal)
	}()

	reader := bufio.NewReader(body)
	var eventName string
	var data []byte

	dispatch := func() bool {
		if len(data) == 0 {
			eventName = ""
			return true
		}
		ok := c.deliverChunk(ctx, stream, build, chunkCh, eventName, data, &terminal)
		eventName = ""
		data = nil
		return ok
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if len(line) > 0 {
				if name, payload, handled := parseSSELine(line); handled {
					if name != "" {
						eventName = name
					}
					data = append(data, payload...)
				}
			}
			dispatch()
			if err != io.EOF {
				select {
				case <-stream.done:
					// Close() tore down the body; not a failure.
				case <-ctx.Done():
					terminal = ctx.Err()
				default:
					terminal = fmt.Errorf("dify: read stream: %w", err)
				}
			}
			return
		}

		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if !dispatch() {
				return
			}
			continue
		}
		if name, payload, handled := parseSSELine(line); handled {
			if name != "" {
				eventName = name
			}
			if payload != nil {
				data = append(data, payload...)
			}
		}
	}
}

// parseSSELine splits one SSE line into its event name or data payload.
// Comment lines (leading ':') and unknown fields are ignored.
func parseSSELine(line string) (eventName string, data []byte, handled bool) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case strings.HasPrefix(line, ":"):
		return "", nil, false
	case strings.HasPrefix(line, "event:"):
		return strings.TrimSpace(strings.TrimPrefix(line, "event:")), nil, true
	case strings.HasPrefix(line, "data:"):
		return "", []byte(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")), true
	default:
		return "", nil, false
	}
}

// deliverChunk decodes one frame and sends it, filtering keep-alives and
// terminating on in-band errors. Returns false when the pump should stop.
func (c *Client) deliverChunk(
	ctx context.Context,
	stream *EventStream,
	build chunkBuilder,
	chunkCh chan<- StreamChunk,
	eventName string,
	data []byte,
	terminal *error,
) bool {
	payload := strings.TrimSpace(string(data))

	// Keep-alives are dropped before decode. Either the SSE event name or
	// the bare data payload can carry the ping marker.
	if eventName == "ping" || payload == "ping" {
		return true
	}

	// The JSON event field is authoritative; the SSE event name is the
	// fallback for frames that omit it.
	var envelope struct {
		Event string `json:"event"`
	}
	_ = json.Unmarshal(data, &envelope)
	tag := envelope.Event
	if tag == "" {
		tag = eventName
	}

	if tag == string(StreamEventPing) {
		return true
	}
	if tag == string(StreamEventError) {
		*terminal = classifyStreamError(data)
		return false
	}

	chunk, err := build(data)
	if err != nil {
		*terminal = err
		return false
	}

	select {
	case chunkCh <- chunk:
		return true
	case <-stream.done:
		return false
	case <-ctx.Done():
		*terminal = ctx.Err()
		return false
	}
}
