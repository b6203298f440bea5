// Package outcome translates the result of a fallible domain computation
// into the discriminated payloads used by interactive entry points (page
// renders and form submissions).
//
// Every declared error code is absorbed into either a redirect or an
// {_tag: Error} payload; the unauthenticated code is privileged and always
// becomes a login redirect before any other handling. Errors outside the
// coded set are defects: Map hands them back untouched so the recovery
// boundary can log and answer with a generic failure.
package outcome

import (
	"bytes"
	"encoding/json"
	"errors"

	dErrors "github.com/GustavEkberg/init/pkg/domain-errors"
)

// DefaultLoginPath is the redirect target for unauthenticated outcomes.
const DefaultLoginPath = "/login"

const genericErrorMessage = "something went wrong"

type kind int

const (
	// The zero kind is deliberately invalid so a zero Outcome, as returned
	// on the defect path, is neither a success, an error, nor a redirect.
	kindInvalid kind = iota
	kindSuccess
	kindError
	kindRedirect
)

// Outcome is the terminal shape of an interactive computation: success with
// a payload, an error message, or a redirect.
type Outcome struct {
	kind    kind
	payload any
	message string
	target  string
}

// Success wraps a computation result. The payload's fields are flattened
// into the JSON body next to the discriminant.
func Success(payload any) Outcome {
	return Outcome{kind: kindSuccess, payload: payload}
}

// Error carries a user-visible message with no partial success payload.
func Error(message string) Outcome {
	if message == "" {
		message = genericErrorMessage
	}
	return Outcome{kind: kindError, message: message}
}

// Redirect instructs the caller to issue an HTTP redirect. It is produced
// only at the outermost boundary, never as a side effect mid-computation.
func Redirect(target string) Outcome {
	return Outcome{kind: kindRedirect, target: target}
}

func (o Outcome) IsSuccess() bool  { return o.kind == kindSuccess }
func (o Outcome) IsError() bool    { return o.kind == kindError }
func (o Outcome) IsRedirect() bool { return o.kind == kindRedirect }

// Target returns the redirect target, empty unless IsRedirect.
func (o Outcome) Target() string { return o.target }

// Message returns the error message, empty unless IsError.
func (o Outcome) Message() string { return o.message }

// MarshalJSON renders {"_tag":"Success",...payload} or
// {"_tag":"Error","message":...}. Redirects have no body.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch o.kind {
	case kindInvalid:
		return nil, errors.New("outcome: marshaling a zero Outcome")
	case kindError:
		return json.Marshal(struct {
			Tag     string `json:"_tag"`
			Message string `json:"message"`
		}{Tag: "Error", Message: o.message})
	case kindRedirect:
		return json.Marshal(struct {
			Tag    string `json:"_tag"`
			Target string `json:"target"`
		}{Tag: "Redirect", Target: o.target})
	}

	if o.payload == nil {
		return []byte(`{"_tag":"Success"}`), nil
	}
	raw, err := json.Marshal(o.payload)
	if err != nil {
		return nil, err
	}
	if len(raw) >= 2 && raw[0] == '{' {
		// Flatten payload fields next to the discriminant.
		var buf bytes.Buffer
		buf.WriteString(`{"_tag":"Success"`)
		if !bytes.Equal(raw, []byte("{}")) {
			buf.WriteByte(',')
			buf.Write(raw[1 : len(raw)-1])
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	}
	// Non-object payloads (lists, scalars) nest under "data".
	return json.Marshal(struct {
		Tag  string `json:"_tag"`
		Data any    `json:"data"`
	}{Tag: "Success", Data: o.payload})
}

// Mapping declares, per call site, how coded errors become outcomes.
type Mapping struct {
	// Messages lists the error codes this call site expects. An empty
	// string keeps the error's own curated message.
	Messages map[dErrors.Code]string

	// Fallback is the catch-all arm for coded errors not listed in
	// Messages. Empty keeps the error's own message.
	Fallback string

	// OnSuccess fires exactly once per successful computation, before the
	// outcome is returned. Used for cache invalidation.
	OnSuccess func()

	// LoginPath overrides DefaultLoginPath for unauthenticated redirects.
	LoginPath string
}

// Map converts a (payload, err) pair into an Outcome. The returned error is
// non-nil only when err is outside the coded set; callers pass such defects
// to the recovery boundary instead of absorbing them.
func Map(payload any, err error, m Mapping) (Outcome, error) {
	if err == nil {
		if m.OnSuccess != nil {
			m.OnSuccess()
		}
		return Success(payload), nil
	}

	code, ok := dErrors.CodeOf(err)
	if !ok {
		return Outcome{}, err
	}

	// Unauthenticated short-circuits before any other arm.
	if code == dErrors.CodeUnauthenticated {
		login := m.LoginPath
		if login == "" {
			login = DefaultLoginPath
		}
		return Redirect(login), nil
	}

	if msg, declared := m.Messages[code]; declared {
		if msg == "" {
			msg = dErrors.Message(err, genericErrorMessage)
		}
		return Error(msg), nil
	}

	fallback := m.Fallback
	if fallback == "" {
		fallback = dErrors.Message(err, genericErrorMessage)
	}
	return Error(fallback), nil
}
