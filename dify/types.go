package dify

import (
	"encoding/json"
	"net/http"
)

// Mode identifies the application mode reported on blocking responses.
type Mode string

// Application modes.
const (
	ModeChat       Mode = "chat"
	ModeCompletion Mode = "completion"
)

var modeValues = []Mode{ModeChat, ModeCompletion}

// ParseMode resolves raw to a Mode, failing on unknown values.
func ParseMode(raw string) (Mode, error) {
	return parseEnum("Mode", raw, modeValues)
}

// ParseModeOr resolves raw to a Mode, returning def on unknown values.
func ParseModeOr(raw string, def Mode) Mode {
	return parseEnumOr(raw, modeValues, def)
}

// ResponseMode selects between a single synchronous result and a live
// event stream.
type ResponseMode string

// Response modes.
const (
	ResponseModeStreaming ResponseMode = "streaming"
	ResponseModeBlocking  ResponseMode = "blocking"
)

var responseModeValues = []ResponseMode{ResponseModeStreaming, ResponseModeBlocking}

// ParseResponseMode resolves raw to a ResponseMode, failing on unknown values.
func ParseResponseMode(raw string) (ResponseMode, error) {
	return parseEnum("ResponseMode", raw, responseModeValues)
}

// ParseResponseModeOr resolves raw to a ResponseMode, returning def on
// unknown values.
func ParseResponseModeOr(raw string, def ResponseMode) ResponseMode {
	return parseEnumOr(raw, responseModeValues, def)
}

// FileType identifies the kind of file attached to a request.
type FileType string

// FileTypeImage is currently the only file type the API accepts.
const FileTypeImage FileType = "image"

var fileTypeValues = []FileType{FileTypeImage}

// ParseFileType resolves raw to a FileType, failing on unknown values.
func ParseFileType(raw string) (FileType, error) {
	return parseEnum("FileType", raw, fileTypeValues)
}

// TransferMethod describes how an attached file reaches the server.
type TransferMethod string

// Transfer methods.
const (
	TransferMethodRemoteURL TransferMethod = "remote_url"
	TransferMethodLocalFile TransferMethod = "local_file"
)

var transferMethodValues = []TransferMethod{TransferMethodRemoteURL, TransferMethodLocalFile}

// ParseTransferMethod resolves raw to a TransferMethod, failing on unknown
// values.
func ParseTransferMethod(raw string) (TransferMethod, error) {
	return parseEnum("TransferMethod", raw, transferMethodValues)
}

// Rating is the feedback rating attached to a message.
type Rating string

// Ratings.
const (
	RatingLike    Rating = "like"
	RatingDislike Rating = "dislike"
)

var ratingValues = []Rating{RatingLike, RatingDislike}

// ParseRating resolves raw to a Rating, failing on unknown values.
func ParseRating(raw string) (Rating, error) {
	return parseEnum("Rating", raw, ratingValues)
}

// CompletionInputs carries the app-defined variable values for a completion
// request. Query is the required input text; any additional app variables
// go in Extra and are flattened into the same JSON object on the wire.
type CompletionInputs struct {
	Query string
	Extra map[string]any
}

// MarshalJSON flattens Query and Extra into a single object.
func (in CompletionInputs) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(in.Extra)+1)
	for k, v := range in.Extra {
		m[k] = v
	}
	m["query"] = in.Query
	return json.Marshal(m)
}

// UnmarshalJSON splits the object back into Query and Extra.
func (in *CompletionInputs) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if q, ok := m["query"].(string); ok {
		in.Query = q
	}
	delete(m, "query")
	if len(m) > 0 {
		in.Extra = m
	} else {
		in.Extra = nil
	}
	return nil
}

// File references a file attached to a request, either by remote URL or by
// the id of a previously uploaded file.
type File struct {
	Type           FileType       `json:"type"`
	TransferMethod TransferMethod `json:"transfer_method"`
	URL            string         `json:"url,omitempty"`
	UploadFileID   string         `json:"upload_file_id,omitempty"`
}

// Usage reports token consumption and pricing for one answer.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`

	PromptUnitPrice     string `json:"prompt_unit_price"`
	PromptPriceUnit     string `json:"prompt_price_unit"`
	PromptPrice         string `json:"prompt_price"`
	CompletionUnitPrice string `json:"completion_unit_price"`
	CompletionPriceUnit string `json:"completion_price_unit"`
	CompletionPrice     string `json:"completion_price"`
	TotalPrice          string `json:"total_price"`
	Currency            string `json:"currency"`

	// Latency is the server-side latency in seconds.
	Latency float64 `json:"latency"`
}

// RetrieverResource is one knowledge-base citation attached to an answer.
type RetrieverResource struct {
	Position     int     `json:"position"`
	DatasetID    string  `json:"dataset_id"`
	DatasetName  string  `json:"dataset_name"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	SegmentID    string  `json:"segment_id"`
	Score        float64 `json:"score"`
	Content      string  `json:"content"`
}

// Metadata aggregates usage and citations for one answer.
type Metadata struct {
	Usage              Usage               `json:"usage"`
	RetrieverResources []RetrieverResource `json:"retriever_resources,omitempty"`
}

// StopRequest asks the server to cancel an in-flight streaming task.
type StopRequest struct {
	User string `json:"user"`
}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Result string `json:"result"` // "success"
}

// ErrorResponse is the JSON error body shape the API returns:
// {status?, code, message}. Status defaults to the HTTP status line when
// the body omits it.
type ErrorResponse struct {
	Status  int    `json:"status,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// defaultErrorStatus is used when neither the body nor an HTTP status line
// provides one (in-band stream errors).
const defaultErrorStatus = http.StatusInternalServerError
