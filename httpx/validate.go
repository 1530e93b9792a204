package httpx

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"strings"

	"golang.org/x/net/html/charset"
)

// Verdict is the outcome of checking a request body.
type Verdict struct {
	Valid  bool
	Reason string
}

// Accept is the Verdict for a body that passed.
var Accept = Verdict{Valid: true}

// Reject returns a failing Verdict with reason.
func Reject(reason string) Verdict { return Verdict{Reason: reason} }

// BodyValidator checks a body against the syntax its media type promises.
type BodyValidator interface {
	ValidateBody(body []byte) Verdict
}

// BodyValidatorFunc adapts a function to BodyValidator.
type BodyValidatorFunc func(body []byte) Verdict

func (f BodyValidatorFunc) ValidateBody(body []byte) Verdict { return f(body) }

// Validators maps a media type such as "application/json" to its validator.
// Types without an entry are accepted as plain text.
type Validators map[string]BodyValidator

// DefaultValidators checks JSON and XML.
func DefaultValidators() Validators {
	return Validators{
		"application/json": JSONValidator,
		"application/xml":  XMLValidator,
	}
}

// Lookup returns the validator for a Content-Type value. Parameters such as
// charset are ignored and the type is matched case-insensitively.
func (v Validators) Lookup(contentType string) (BodyValidator, bool) {
	mt := MediaType(contentType)
	if mt == "" {
		return nil, false
	}
	bv, ok := v[mt]
	return bv, ok
}

// MediaType returns the lower-cased type/subtype of a Content-Type value.
func MediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Fall back to the part before any parameters.
		mt, _, _ = strings.Cut(contentType, ";")
		mt = strings.ToLower(strings.TrimSpace(mt))
	}
	return mt
}

// JSONValidator accepts exactly one well-formed JSON value.
var JSONValidator = BodyValidatorFunc(func(body []byte) Verdict {
	if !json.Valid(body) {
		return Reject("Malformed JSON body")
	}
	return Accept
})

// XMLValidator accepts a well-formed document with a single root element.
// Encodings other than UTF-8 declared in the prolog are honored.
var XMLValidator = BodyValidatorFunc(func(body []byte) Verdict {
	if err := checkXML(body); err != nil {
		return Reject("Malformed XML body")
	}
	return Accept
})

func checkXML(body []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	depth, roots := 0, 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					return errors.New("xml: more than one root element")
				}
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return errors.New("xml: text outside the root element")
			}
		}
	}
	if roots == 0 {
		return errors.New("xml: no root element")
	}
	if depth != 0 {
		return errors.New("xml: unclosed element")
	}
	return nil
}
