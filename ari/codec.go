package ari

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Envelope type tags.
const (
	TypeRESTRequest  = "RESTRequest"
	TypeRESTResponse = "RESTResponse"
)

const contentTypeJSON = "application/json"

// Method is a REST method carried inside a RESTRequest.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

func (m Method) valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// QueryString is one name/value pair of a request's query_strings list.
type QueryString struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Request is an outbound RESTRequest. RequestID is assigned by the client.
type Request struct {
	Method       Method
	URI          string
	QueryStrings []QueryString
	Body         map[string]interface{}

	RequestID string
}

// NewRequest creates a request for method and uri. The uri may already
// carry a query string.
func NewRequest(method Method, uri string) *Request {
	return &Request{Method: method, URI: uri}
}

// WithQuery appends a query_strings entry.
func (r *Request) WithQuery(name, value string) *Request {
	r.QueryStrings = append(r.QueryStrings, QueryString{Name: name, Value: value})
	return r
}

// WithBody sets the JSON body sent as message_body.
func (r *Request) WithBody(body map[string]interface{}) *Request {
	r.Body = body
	return r
}

type wireRequest struct {
	Type         string        `json:"type"`
	RequestID    string        `json:"request_id"`
	Method       Method        `json:"method"`
	URI          string        `json:"uri"`
	QueryStrings []QueryString `json:"query_strings,omitempty"`
	ContentType  string        `json:"content_type,omitempty"`
	MessageBody  string        `json:"message_body,omitempty"`
}

// Encode serializes req into a RESTRequest frame. The output is
// deterministic for a given request.
func Encode(req *Request) ([]byte, error) {
	if req == nil {
		return nil, &EncodeError{Reason: "nil request"}
	}
	if !req.Method.valid() {
		return nil, &EncodeError{Reason: "unsupported method " + string(req.Method)}
	}
	if req.URI == "" {
		return nil, &EncodeError{Reason: "empty uri"}
	}
	if req.RequestID == "" {
		return nil, &EncodeError{Reason: "missing request id"}
	}

	w := wireRequest{
		Type:         TypeRESTRequest,
		RequestID:    req.RequestID,
		Method:       req.Method,
		URI:          req.URI,
		QueryStrings: req.QueryStrings,
	}
	if req.Body != nil {
		body, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &EncodeError{Reason: "body", Cause: err}
		}
		w.ContentType = contentTypeJSON
		w.MessageBody = string(body)
	}

	data, err := json.Marshal(w)
	if err != nil {
		return nil, &EncodeError{Reason: "envelope", Cause: err}
	}
	return data, nil
}

// Response is an inbound RESTResponse.
type Response struct {
	Type         string          `json:"type"`
	RequestID    string          `json:"request_id"`
	StatusCode   int             `json:"status_code"`
	ReasonPhrase string          `json:"reason_phrase"`
	URI          string          `json:"uri,omitempty"`
	ContentType  string          `json:"content_type,omitempty"`
	MessageBody  json.RawMessage `json:"message_body,omitempty"`
}

// Body returns the response payload. Asterisk sends message_body as a JSON
// string holding JSON text; an inline JSON value is accepted as well.
// An empty or null body yields nil.
func (r *Response) Body() ([]byte, error) {
	raw := bytes.TrimSpace(r.MessageBody)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return []byte(s), nil
}

// Unmarshal decodes the response payload into v. An empty body leaves v
// untouched.
func (r *Response) Unmarshal(v interface{}) error {
	body, err := r.Body()
	if err != nil || body == nil {
		return err
	}
	return json.Unmarshal(body, v)
}

// Err returns a *StatusError when the status code is not 2xx.
func (r *Response) Err() error {
	if r.StatusCode >= 200 && r.StatusCode < 300 {
		return nil
	}
	return &StatusError{URI: r.URI, StatusCode: r.StatusCode, ReasonPhrase: r.ReasonPhrase}
}

// Frame is a decoded inbound frame: exactly one of Response and Event is set.
type Frame struct {
	Type     string
	Response *Response
	Event    *Event
}

// Decode parses an inbound frame. Anything that is not a JSON object with
// a non-empty type tag yields a *MalformedFrameError.
func Decode(data []byte) (*Frame, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, &MalformedFrameError{Reason: "invalid json", Cause: err}
	}
	if head.Type == "" {
		return nil, &MalformedFrameError{Reason: "missing type"}
	}

	if head.Type == TypeRESTResponse {
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			return nil, &MalformedFrameError{Reason: "response", Cause: err}
		}
		if resp.RequestID == "" {
			return nil, &MalformedFrameError{Reason: "response without request_id"}
		}
		return &Frame{Type: head.Type, Response: &resp}, nil
	}

	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, &MalformedFrameError{Reason: "event " + head.Type, Cause: err}
	}
	ev.Raw = append(json.RawMessage(nil), data...)
	return &Frame{Type: head.Type, Event: &ev}, nil
}
