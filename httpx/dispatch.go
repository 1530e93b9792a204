package httpx

import (
	"bufio"
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpwire/httpx/internal/http1"
	"dqx0.com/go/httpwire/internal/obs"
)

const (
	// DefaultProtectedPrefix is the target prefix that requires a bearer token.
	DefaultProtectedPrefix = "/secure"
	// DefaultMaxBodyBytes caps inbound request bodies.
	DefaultMaxBodyBytes = 10 << 20
)

// ServerRequest is an inbound request as read off the connection.
type ServerRequest struct {
	Method string // raw token; may name a method this package does not support
	Target string
	Proto  string
	Header Header
	Body   []byte
	// Raw holds every byte consumed while reading the request.
	Raw []byte
}

// Dispatcher answers one request per connection: it authorizes targets
// under ProtectedPrefix, validates POST bodies by media type and routes on
// the method. It holds no per-request state and is safe for concurrent use.
type Dispatcher struct {
	// Secret is the bearer token protected targets require. An empty
	// Secret rejects every protected request.
	Secret          string
	ProtectedPrefix string
	Validators      Validators
	MaxHeaderBytes  int // per line
	MaxHeadBytes    int // request line plus all fields
	MaxBodyBytes    int64

	Logger *zap.Logger
	Meter  obs.Meter
}

// NewDispatcher returns a Dispatcher guarding DefaultProtectedPrefix with
// secret and validating JSON and XML bodies.
func NewDispatcher(secret string) *Dispatcher {
	return &Dispatcher{
		Secret:          secret,
		ProtectedPrefix: DefaultProtectedPrefix,
		Validators:      DefaultValidators(),
		MaxBodyBytes:    DefaultMaxBodyBytes,
	}
}

// HandleConnection reads one request from conn, writes exactly one response
// and closes conn, whatever happens in between.
func (d *Dispatcher) HandleConnection(conn io.ReadWriteCloser) {
	defer conn.Close()
	start := time.Now()
	log := d.logger().With(zap.String("request_id", genID()))

	req, res := d.serve(conn, log)
	if err := http1.WriteResponse(conn, res.StatusCode, res.Reason, res.Header, res.Body); err != nil {
		log.Warn("write response failed", zap.Error(err))
	}

	fields := []zap.Field{
		zap.Int("status", res.StatusCode),
		zap.Int("bytes", len(res.Body)),
		zap.Duration("elapsed", time.Since(start)),
	}
	if req != nil {
		fields = append(fields, zap.String("method", req.Method), zap.String("target", req.Target))
	}
	log.Info("request served", fields...)
	d.meter().Counter("httpx_server_responses_total", 1, obs.Label{Key: "status", Value: strconv.Itoa(res.StatusCode)})
}

func (d *Dispatcher) serve(r io.Reader, log *zap.Logger) (req *ServerRequest, res *Response) {
	defer func() {
		if p := recover(); p != nil {
			log.Error("dispatch panicked", zap.Any("panic", p), zap.Stack("stack"))
			res = internalError()
		}
	}()
	req, err := d.ReadRequest(r)
	switch {
	case err == nil:
		return req, d.Dispatch(req)
	case errors.Is(err, http1.ErrEmptyMessage):
		return nil, emptyReply(400)
	case isTimeout(err) && req != nil && len(req.Raw) == 0:
		return nil, emptyReply(400)
	case isTimeout(err):
		log.Debug("request timed out", zap.Error(err))
		return nil, reply{status: 408, body: htmlMessage("Request timed out.")}.finish()
	case errors.Is(err, http1.ErrHeaderTooLarge):
		log.Debug("request head too large", zap.Error(err))
		return nil, reply{status: 431, body: htmlMessage("Request header too large.")}.finish()
	case errors.Is(err, http1.ErrInvalidContentLength), errors.Is(err, http1.ErrTruncatedBody):
		log.Debug("bad request body", zap.Error(err))
		return nil, reply{status: 400, body: htmlMessage("Invalid request body.")}.finish()
	case errors.Is(err, http1.ErrBodyTooLarge):
		return nil, reply{status: 413, body: htmlMessage("Request body too large.")}.finish()
	default:
		log.Warn("read request failed", zap.Error(err))
		return nil, internalError()
	}
}

// ReadRequest reads a request head and its Content-Length or chunked body.
// On error the returned request, when non-nil, carries only Raw.
func (d *Dispatcher) ReadRequest(r io.Reader) (*ServerRequest, error) {
	var raw bytes.Buffer
	rd := &http1.Reader{
		BR:             bufio.NewReader(r),
		MaxHeaderBytes: d.MaxHeaderBytes,
		MaxHeadBytes:   d.MaxHeadBytes,
		MaxBodyBytes:   d.MaxBodyBytes,
		Raw:            &raw,
	}
	head, err := rd.ReadRequestHead()
	if err != nil {
		return &ServerRequest{Raw: raw.Bytes()}, err
	}
	if hd, ok := r.(headDeadliner); ok {
		hd.headRead()
	}
	body, err := rd.ReadBody(head.Header, false)
	if err != nil {
		return &ServerRequest{Raw: raw.Bytes()}, err
	}
	return &ServerRequest{
		Method: head.Method,
		Target: head.Target,
		Proto:  head.Proto,
		Header: head.Header,
		Body:   body,
		Raw:    raw.Bytes(),
	}, nil
}

// Dispatch produces the response for req. It performs no I/O.
func (d *Dispatcher) Dispatch(req *ServerRequest) *Response {
	if d.protected(req.Target) {
		if denied := d.authorize(req.Header); denied != nil {
			return denied.finish()
		}
	}
	m, ok := ParseMethod(req.Method)
	if !ok {
		return reply{status: 405, body: htmlMessage(fmt.Sprintf("Method '%s' not allowed.", req.Method))}.finish()
	}
	return d.route(m, req).finish()
}

func (d *Dispatcher) route(m Method, req *ServerRequest) reply {
	switch m {
	case MethodGet:
		if d.protected(req.Target) {
			return reply{body: htmlMessage("GET request successful! You accessed a protected resource.")}
		}
		return reply{body: htmlMessage(fmt.Sprintf("Welcome! GET request for '%s' successful.", req.Target))}
	case MethodPost:
		return d.post(req)
	case MethodHead:
		return reply{header: Header{{Name: "Content-Length", Value: "0"}}}
	case MethodPut:
		return reply{body: htmlMessage(fmt.Sprintf("PUT request successful! Resource '%s' would be updated if this were implemented.", req.Target))}
	case MethodDelete:
		return reply{body: htmlMessage(fmt.Sprintf("DELETE request successful! Resource '%s' would be deleted if this were implemented.", req.Target))}
	case MethodOptions:
		return reply{status: 204, header: Header{
			{Name: "Allow", Value: AllowHeader()},
			{Name: "Content-Length", Value: "0"},
		}}
	case MethodTrace:
		return reply{
			header: Header{
				{Name: "Content-Type", Value: "message/http"},
				{Name: "Content-Length", Value: strconv.Itoa(len(req.Raw))},
			},
			body: req.Raw,
		}
	case MethodConnect:
		target := strings.Trim(req.Target, "/")
		return reply{body: []byte(fmt.Sprintf("CONNECT method successful! Tunneling to %s established.", target))}
	}
	panic(fmt.Sprintf("httpx: unrouted method %v", m))
}

func (d *Dispatcher) post(req *ServerRequest) reply {
	ct := req.Header.Get("Content-Type")
	kind := "Plain text"
	if v, ok := d.Validators.Lookup(ct); ok {
		if verdict := v.ValidateBody(req.Body); !verdict.Valid {
			return reply{status: 400, body: htmlMessage(verdict.Reason)}
		}
		kind = mediaLabel(MediaType(ct))
	}
	if kind == "Plain text" {
		return reply{body: []byte(fmt.Sprintf("POST request successful! Plain text body received: %s.", req.Body))}
	}
	return reply{body: htmlMessage(fmt.Sprintf("POST request successful! %s body received: %s.", kind, req.Body))}
}

// mediaLabel names a validated media type in reply bodies: "JSON" for
// application/json, "XML" for application/xml.
func mediaLabel(mt string) string {
	_, sub, _ := strings.Cut(mt, "/")
	if sub == "" {
		return "Plain text"
	}
	return strings.ToUpper(sub)
}

func (d *Dispatcher) protected(target string) bool {
	prefix := d.ProtectedPrefix
	return prefix != "" && strings.HasPrefix(target, prefix)
}

// authorize returns nil when h carries "Authorization: Bearer <Secret>".
func (d *Dispatcher) authorize(h Header) *reply {
	v, ok := h.Lookup("Authorization")
	if !ok {
		return unauthorized("Authorization header missing.")
	}
	if len(v) < len("Bearer ") || !strings.EqualFold(v[:len("Bearer ")], "Bearer ") {
		return unauthorized("Invalid or missing authorization token.")
	}
	token := strings.TrimSpace(v[len("Bearer "):])
	if d.Secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(d.Secret)) != 1 {
		return unauthorized("Invalid or missing authorization token.")
	}
	return nil
}

func unauthorized(msg string) *reply {
	body := htmlMessage(msg)
	return &reply{status: 401, header: Header{
		{Name: "Content-Type", Value: "text/html"},
		{Name: "WWW-Authenticate", Value: "Bearer"},
		{Name: "Content-Length", Value: strconv.Itoa(len(body))},
	}, body: body}
}

// reply is a routing outcome before defaults are applied.
type reply struct {
	status int
	header Header
	body   []byte
}

// finish applies the defaults: 200 OK, and when no header was set,
// Content-Type: text/html with a matching Content-Length.
func (r reply) finish() *Response {
	if r.status == 0 {
		r.status = 200
	}
	if r.header == nil {
		r.header = Header{
			{Name: "Content-Type", Value: "text/html"},
			{Name: "Content-Length", Value: strconv.Itoa(len(r.body))},
		}
	}
	return &Response{
		Proto:      "HTTP/1.1",
		StatusCode: r.status,
		Reason:     http1.ReasonPhrase(r.status),
		Header:     r.header,
		Body:       r.body,
	}
}

func emptyReply(status int) *Response {
	return reply{status: status, header: Header{{Name: "Content-Length", Value: "0"}}}.finish()
}

func internalError() *Response {
	body := []byte("Internal Server Error")
	return reply{status: 500, header: Header{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "Content-Length", Value: strconv.Itoa(len(body))},
	}, body: body}.finish()
}

func htmlMessage(msg string) []byte {
	return []byte("<h1>" + msg + "</h1>")
}

func (d *Dispatcher) logger() *zap.Logger { return obs.OrNop(d.Logger) }

func (d *Dispatcher) meter() obs.Meter { return obs.OrNopMeter(d.Meter) }
