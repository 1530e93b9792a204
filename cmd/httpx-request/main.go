// Command httpx-request issues one HTTP/1.1 request, follows redirects and
// prints the final response as JSON.
//
//	httpx-request -m POST -u http://localhost:8080/data \
//	    -H '{"Content-Type":"application/json"}' -d '{"k":"v"}'
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"dqx0.com/go/httpwire/httpx"
	"dqx0.com/go/httpwire/internal/obs"
)

type field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type output struct {
	Status  int     `json:"status"`
	Reason  string  `json:"reason"`
	Headers []field `json:"headers"`
	Body    string  `json:"body"`
}

func main() {
	method := flag.String("m", "GET", "request method")
	rawURL := flag.String("u", "", "request URL")
	headers := flag.String("H", "", `headers as a JSON object, e.g. '{"Accept":"text/html"}'`)
	data := flag.String("d", "", "request body")
	redirects := flag.Int("max-redirects", httpx.DefaultMaxRedirects, "redirects to follow; negative disables following")
	idle := flag.Duration("idle", httpx.DefaultIdleTimeout, "idle read timeout")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log, err := obs.New(*level, true)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	if *rawURL == "" {
		fmt.Fprintln(os.Stderr, "httpx-request: -u is required")
		flag.Usage()
		os.Exit(2)
	}
	h, err := parseHeaders(*headers)
	if err != nil {
		log.Fatal("bad -H value", zap.Error(err))
	}
	var body []byte
	if *data != "" {
		body = []byte(*data)
	}

	c := &httpx.Client{
		MaxRedirects: *redirects,
		IdleTimeout:  *idle,
		DialTimeout:  10 * time.Second,
		Logger:       log,
	}
	res, err := c.IssueRequest(strings.ToUpper(*method), *rawURL, h, body)
	if err != nil {
		log.Error("request failed", zap.String("url", *rawURL), zap.Error(err))
		os.Exit(exitCode(err))
	}

	out := output{Status: res.StatusCode, Reason: res.Reason, Headers: []field{}, Body: res.Text()}
	for _, f := range res.Header {
		out.Headers = append(out.Headers, field{Name: f.Name, Value: f.Value})
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		log.Fatal("encode output", zap.Error(err))
	}
}

// parseHeaders reads a JSON object into a Header, keeping key order.
func parseHeaders(s string) (httpx.Header, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.New("headers must be a JSON object")
	}
	var h httpx.Header
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, _ := tok.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		switch v := v.(type) {
		case string:
			h.Add(name, v)
		case []any:
			for _, e := range v {
				h.Add(name, fmt.Sprint(e))
			}
		default:
			h.Add(name, fmt.Sprint(v))
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return h, nil
}

func exitCode(err error) int {
	switch {
	case errors.Is(err, httpx.ErrInvalidURL), errors.Is(err, httpx.ErrUnknownMethod):
		return 2
	case errors.Is(err, httpx.ErrConnectionFailed):
		return 3
	case errors.Is(err, httpx.ErrTooManyRedirects):
		return 4
	}
	return 1
}
