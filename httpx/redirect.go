package httpx

import "strings"

// DefaultMaxRedirects bounds the redirect chain Client.Do will follow.
const DefaultMaxRedirects = 20

// Redirect is the follow-up request chosen by NextHop.
type Redirect struct {
	Method Method
	URL    URLEndpoint
}

// NextHop decides whether res, the answer to a method request for current,
// sends the client elsewhere. It returns nil when res is final.
//
//	300, 305        Location set                    same method
//	301, 302, 307   Location set, method GET/HEAD   same method
//	303             Location set                    GET
//
// The Location value is resolved against current. An empty one counts as
// absent.
func NextHop(method Method, current URLEndpoint, res *Response) (*Redirect, error) {
	loc, ok := res.Header.Lookup("Location")
	if !ok || strings.Trim(loc, " \t") == "" {
		return nil, nil
	}
	next := method
	switch res.StatusCode {
	case 300, 305:
	case 301, 302, 307:
		if method != MethodGet && method != MethodHead {
			return nil, nil
		}
	case 303:
		next = MethodGet
	default:
		return nil, nil
	}
	u, err := current.Resolve(loc)
	if err != nil {
		return nil, err
	}
	return &Redirect{Method: next, URL: u}, nil
}
