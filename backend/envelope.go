package backend

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/logfinder/gatewayproxy/proxy"
)

// Envelope is the JSON document a worker receives for every request.
type Envelope struct {
	Path            string              `json:"path"`
	HTTPMethod      string              `json:"httpMethod"`
	Resource        string              `json:"resource,omitempty"`
	Headers         map[string][]string `json:"headers"`
	Query           map[string][]string `json:"queryStringParameters"`
	PathParameters  map[string]string   `json:"pathParameters"`
	Body            string              `json:"body"`
	IsBase64Encoded bool                `json:"isBase64Encoded"`
	RequestContext  RequestContext      `json:"requestContext"`
}

type RequestContext struct {
	RequestID    string     `json:"requestId"`
	AwsRequestID string     `json:"awsRequestId,omitempty"`
	FunctionARN  string     `json:"functionArn,omitempty"`
	TraceID      string     `json:"traceId,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// NewEnvelope converts a proxy request into its wire representation.
func NewEnvelope(req proxy.Request) Envelope {
	env := Envelope{
		Path:            req.Path,
		HTTPMethod:      req.Method,
		Resource:        req.Resource,
		Headers:         req.Header,
		Query:           req.Query,
		PathParameters:  req.PathParameters,
		Body:            req.Body,
		IsBase64Encoded: req.IsBase64Encoded,
		RequestContext: RequestContext{
			RequestID:    req.Context.RequestID,
			AwsRequestID: req.Context.AwsRequestID,
			FunctionARN:  req.Context.FunctionARN,
			TraceID:      req.Context.TraceID,
		},
	}

	if !req.Context.Deadline.IsZero() {
		deadline := req.Context.Deadline.UTC()
		env.RequestContext.Deadline = &deadline
	}

	return env
}

// Reply is the JSON document a worker answers with. Either Error is
// set, or the remaining fields describe the response.
type Reply struct {
	StatusCode      int          `json:"statusCode"`
	Headers         ReplyHeaders `json:"headers,omitempty"`
	Body            string       `json:"body"`
	IsBase64Encoded bool         `json:"isBase64Encoded"`
	Error           *ReplyError  `json:"error,omitempty"`
}

type ReplyError struct {
	Message string `json:"message"`
}

// Response converts the reply into a proxy response.
func (r Reply) Response() proxy.Response {
	header := make(http.Header, len(r.Headers))
	for k, v := range r.Headers {
		header[k] = v
	}

	return proxy.Response{
		StatusCode:      r.StatusCode,
		Header:          header,
		Body:            r.Body,
		IsBase64Encoded: r.IsBase64Encoded,
	}
}

// ReplyHeaders accepts both single string and string array values.
type ReplyHeaders map[string][]string

func (h *ReplyHeaders) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	res := make(ReplyHeaders, len(raw))

	for k, v := range raw {
		var single string
		if err := json.Unmarshal(v, &single); err == nil {
			res[k] = []string{single}
			continue
		}

		var multi []string
		if err := json.Unmarshal(v, &multi); err != nil {
			return err
		}

		res[k] = multi
	}

	*h = res

	return nil
}
