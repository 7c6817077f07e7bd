package loader

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrEmptyURL is returned when no data reference is configured.
	ErrEmptyURL = errors.New("data URL is empty")

	// ErrUnsupportedScheme is returned for references no source can serve.
	ErrUnsupportedScheme = errors.New("unsupported data URL scheme")
)

// FetchError reports a network failure or a non-success HTTP status while
// retrieving the dataset.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

// Error never includes credentials or query parameters of the URL, since the
// message ends up in the dashboard error banner.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", redactURL(e.URL), e.StatusCode)
	}
	cause := e.Err
	var urlErr *url.Error
	if errors.As(cause, &urlErr) {
		cause = urlErr.Err
	}
	return fmt.Sprintf("fetch %s: %v", redactURL(e.URL), cause)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError reports a document that is not valid dataset CSV. Line is
// 1-based; 0 means the error is not tied to a line.
type ParseError struct {
	Line    int
	Column  string
	Missing []string
	Reason  string
	Err     error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	b.WriteString("parse")
	if e.Line > 0 {
		fmt.Fprintf(&b, " line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %s", e.Column)
	}
	b.WriteString(": ")
	switch {
	case len(e.Missing) > 0:
		fmt.Fprintf(&b, "missing required columns: %s", strings.Join(e.Missing, ", "))
	case e.Reason != "":
		b.WriteString(e.Reason)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString("invalid document")
	}
	return b.String()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err is or wraps a FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// errorType labels an error for logs and metrics.
func errorType(err error) string {
	switch {
	case IsFetchError(err):
		return "fetch"
	case IsParseError(err):
		return "parse"
	default:
		return "other"
	}
}

// redactURL drops the userinfo and query of ref.
func redactURL(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme == "" {
		return ref
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
