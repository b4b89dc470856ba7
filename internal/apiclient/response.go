// ABOUTME: Raw response envelope with path-based unwrapping
// ABOUTME: Uses gjson to locate data.<resource> before decoding into typed values

package apiclient

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/tidwall/gjson"
)

// Response is a successful server reply; Data holds the raw envelope or blob
type Response struct {
	Status int
	Header http.Header
	Data   []byte
}

// Exists reports whether the envelope contains a value at path
func (r *Response) Exists(path string) bool {
	if !gjson.ValidBytes(r.Data) {
		return false
	}
	return gjson.GetBytes(r.Data, path).Exists()
}

// Decode unmarshals the value found at path (gjson syntax, e.g. "data.invoice") into v.
// An empty path decodes the whole envelope.
func (r *Response) Decode(path string, v any) error {
	if !gjson.ValidBytes(r.Data) {
		return &Error{Kind: KindDecode, Status: r.Status, Message: "invalid JSON in response", Body: r.Data}
	}

	raw := r.Data
	if path != "" {
		res := gjson.GetBytes(r.Data, path)
		if !res.Exists() {
			return &Error{
				Kind:    KindDecode,
				Status:  r.Status,
				Message: fmt.Sprintf("response is missing %q", path),
				Body:    r.Data,
			}
		}
		raw = []byte(res.Raw)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return &Error{Kind: KindDecode, Status: r.Status, Message: fmt.Sprintf("invalid %q in response", path), Body: r.Data, Err: err}
	}
	return nil
}

// ContentType returns the media type of the response without parameters
func (r *Response) ContentType() string {
	ct := r.Header.Get("Content-Type")
	if ct == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return ct
	}
	return mediaType
}

// Filename returns the filename advertised by Content-Disposition, if any
func (r *Response) Filename() string {
	cd := r.Header.Get("Content-Disposition")
	if cd == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
