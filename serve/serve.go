// FILE: serve/serve.go

// Package serve exposes an inference module over HTTP. The surface is the
// two-endpoint hosting contract: GET /ping for health and POST /invocations
// for prediction.
package serve

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/modelkit-io/modelkit/blob"
	"github.com/modelkit-io/modelkit/compat"
	"github.com/modelkit-io/modelkit/log"
	"github.com/modelkit-io/modelkit/modelmod"
)

// URIListContentType marks a request body holding input and output URIs
// instead of inline payload data.
const URIListContentType = "text/uri-list"

// DefaultPort is used when Options leaves the port unset.
const DefaultPort = 8080

// Options configures a Server.
type Options struct {
	Port   int
	Logger log.Logger
}

// Server hosts one loaded inference module.
type Server struct {
	module modelmod.InferenceModule
	model  any
	logger log.Logger
	http   *fasthttp.Server
	port   int
}

// New loads the model from modelDir and returns a server ready to listen.
func New(module modelmod.InferenceModule, modelDir string, opts Options) (*Server, error) {
	logger := log.OrDiscard(opts.Logger)
	port := opts.Port
	if port == 0 {
		port = DefaultPort
	}

	_ = logger.Log("Loading Model...")
	model, err := module.Load(modelDir, logger)
	if err != nil {
		return nil, fmt.Errorf("serve: failed to load model: %w", err)
	}
	_ = logger.Log("Model loaded!")

	s := &Server{
		module: module,
		model:  model,
		logger: logger,
		port:   port,
	}
	s.http = &fasthttp.Server{
		Handler: s.handle,
		Name:    "modelkit",
		Logger:  compat.NewFastHTTPAdapter(logger),
	}
	return s, nil
}

// ListenAndServe blocks serving requests on the configured port.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	_ = s.logger.Log("Starting server on", addr)
	if err := s.http.ListenAndServe(addr); err != nil {
		return fmt.Errorf("serve: server failed: %w", err)
	}
	return nil
}

// Serve blocks serving requests on ln. Used when the caller owns the
// listener.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.http.Serve(ln); err != nil {
		return fmt.Errorf("serve: server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server and flushes the logger.
func (s *Server) Shutdown() error {
	_ = s.logger.Log("Cleaning up server resources...")
	err := s.http.Shutdown()
	_ = s.logger.Log("Server stopped")
	_ = s.logger.Flush(true)
	if err != nil {
		return fmt.Errorf("serve: shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch {
	case ctx.IsGet() && string(ctx.Path()) == "/ping":
		ctx.SetStatusCode(fasthttp.StatusOK)
	case ctx.IsPost() && string(ctx.Path()) == "/invocations":
		s.invoke(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

// invoke runs one prediction. A text/uri-list body redirects the payload
// through external storage: the input is fetched from the first URI and
// the output delivered to the second.
func (s *Server) invoke(ctx *fasthttp.RequestCtx) {
	contentType := string(ctx.Request.Header.ContentType())
	if contentType == "" {
		contentType = modelmod.DefaultContentType
	}
	accepted := string(ctx.Request.Header.Peek(fasthttp.HeaderAccept))
	if accepted == "" {
		accepted = modelmod.AcceptAny
	}
	body := ctx.PostBody()

	var outputURI string
	if contentType == URIListContentType {
		uris := strings.Split(string(body), "\r\n")
		if len(uris) != 2 {
			ctx.Error("Invalid URI list", fasthttp.StatusBadRequest)
			return
		}
		inputURI := uris[0]
		outputURI = uris[1]

		fetched, err := blob.Get(inputURI)
		if err != nil {
			s.fail(ctx, fasthttp.StatusInternalServerError, err)
			return
		}
		body = fetched
	}

	input, err := s.module.Deserialize(body, contentType, s.logger)
	if err != nil {
		s.fail(ctx, fasthttp.StatusInternalServerError, err)
		return
	}

	output, err := s.module.Predict(input, s.model, s.logger)
	if err != nil {
		s.fail(ctx, fasthttp.StatusInternalServerError, err)
		return
	}

	resBody, resType, err := s.module.Serialize(output, accepted, s.logger)
	if err != nil {
		if errors.Is(err, modelmod.ErrUnsupportedAccept) {
			ctx.Error("Unable to serialize output to an accepted content type",
				fasthttp.StatusBadRequest)
			return
		}
		s.fail(ctx, fasthttp.StatusInternalServerError, err)
		return
	}

	if outputURI != "" {
		if err := blob.Save(outputURI, resBody, resType); err != nil {
			s.fail(ctx, fasthttp.StatusBadGateway, err)
			return
		}
		ctx.SetBodyString(fmt.Sprintf("Output written to %q", outputURI))
		return
	}

	ctx.SetContentType(resType)
	ctx.SetBody(resBody)
}

func (s *Server) fail(ctx *fasthttp.RequestCtx, status int, err error) {
	_ = s.logger.LogWith(log.LogOptions{Level: log.LevelError}, "Invocation failed:", err)
	ctx.Error(err.Error(), status)
}
