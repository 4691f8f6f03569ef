package types

type (
	// Request is the framework-independent input of the index handler.
	Request struct {
		Dir            string // raw "dir" query parameter; empty when absent
		AcceptLanguage string
	}

	// Response is the framework-independent output of the index handler.
	Response struct {
		Status      int
		Body        string
		ContentType string
	}
)

// HTMLContentType is the content type of every rendered page.
const HTMLContentType = "text/html; charset=utf-8"
