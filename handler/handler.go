package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/logfinder/gatewayproxy/proxy"
)

// RequestIDHeader carries a caller-chosen request id.
const RequestIDHeader = "X-Request-Id"

// ProxyResource is the resource reported for requests routed
// through the catch-all route.
const ProxyResource = "/{proxy+}"

type ProxyHandlerParams struct {
	fx.In

	Handler proxy.Handler
	Log     *zap.Logger
}

func NewProxyHandler(params ProxyHandlerParams) *ProxyHandler {
	return &ProxyHandler{
		handler: params.Handler,
		log:     params.Log,
	}
}

// ProxyHandler serves net/http requests through a proxy.Handler.
type ProxyHandler struct {
	handler proxy.Handler
	log     *zap.Logger
}

func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.log.With(
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
	)

	request, err := newRequest(r)
	if err != nil {
		log.Debug("failed to read body", zap.Error(err))
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	response, err := h.handler.Handle(r.Context(), request)
	if err != nil {
		log.Debug("handler failed", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}

	body := []byte(response.Body)
	if response.IsBase64Encoded {
		if body, err = base64.StdEncoding.DecodeString(response.Body); err != nil {
			log.Debug("invalid base64 response body", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
			return
		}
	}

	// map response headers
	for k, v := range response.Header {
		for _, vv := range v {
			w.Header().Add(k, vv)
		}
	}

	w.WriteHeader(response.StatusCode)

	if _, err := w.Write(body); err != nil {
		log.Debug("failed to write response", zap.Error(err))
	}
}

func newRequest(r *http.Request) (proxy.Request, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return proxy.Request{}, err
	}

	request := proxy.Request{
		Path:           r.URL.Path,
		Method:         strings.ToUpper(r.Method),
		Resource:       ProxyResource,
		Header:         r.Header.Clone(),
		Query:          r.URL.Query(),
		PathParameters: map[string]string{"proxy": strings.TrimPrefix(r.URL.Path, "/")},
		Context:        proxy.NewInvocationContext(r.Context(), requestID(r), r.Header),
	}

	if utf8.Valid(body) {
		request.Body = string(body)
	} else {
		request.Body = base64.StdEncoding.EncodeToString(body)
		request.IsBase64Encoded = true
	}

	return request, nil
}

func requestID(r *http.Request) string {
	if lc, ok := lambdacontext.FromContext(r.Context()); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}

	if id := r.Header.Get(RequestIDHeader); id != "" {
		return id
	}

	return uuid.NewString()
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
