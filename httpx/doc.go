// Package httpx is a minimal HTTP/1.1 engine: a client that issues one
// request per connection and follows redirects, and a server whose
// Dispatcher answers one request per connection.
//
// Highlights
//   - Client: URL resolution with IDNA hosts, TLS with SNI, Content-Length,
//     chunked and read-until-close bodies, idle read timeout, bounded
//     redirect chains (DefaultMaxRedirects).
//   - Server: bearer authorization under a protected prefix, JSON and XML
//     body validation, routing for GET, POST, HEAD, PUT, DELETE, OPTIONS,
//     TRACE and CONNECT, and a single 500 for anything that goes wrong.
//   - Observability: zap loggers and an obs.Meter on both sides.
//
// Quick start (server):
//
//	s := &httpx.Server{Addr: "localhost:8080", Dispatcher: httpx.NewDispatcher(token)}
//	if err := s.ListenAndServe(); err != nil { log.Fatal(err) }
//
// Quick start (client):
//
//	c := &httpx.Client{}
//	res, err := c.IssueRequest("GET", "http://localhost:8080/", nil, nil)
//	if err != nil { log.Fatal(err) }
//	fmt.Println(res.StatusCode, res.Text())
package httpx
