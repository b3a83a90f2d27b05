package wire

// Event is the vocabulary of a dispatch stream. A stream carries zero or
// more progress events followed by exactly one terminal event, then closes.
type Event interface {
	isEvent()
}

// Sent signals that the request has been handed to the transport
type Sent struct{}

// UploadProgress reports request body bytes written so far.
// Total is -1 when the total size is unknown.
type UploadProgress struct {
	Loaded int64
	Total  int64
}

// DownloadProgress reports response body bytes received so far.
// Total is -1 when the server did not announce a content length.
type DownloadProgress struct {
	Loaded int64
	Total  int64
}

// ResponseHeaders signals that the status line and headers have arrived
// while the body is still pending
type ResponseHeaders struct {
	Status int
	Header *Header
}

// Response is the terminal event of a successful dispatch. Any delivered
// HTTP response is a dispatch success; status classification is policy for
// interceptors and decode helpers.
type Response struct {
	Status int
	Header *Header
	Body   []byte
	URL    string
}

// Failure is the terminal event of a failed dispatch
type Failure struct {
	Err error
}

func (*Sent) isEvent()             {}
func (*UploadProgress) isEvent()   {}
func (*DownloadProgress) isEvent() {}
func (*ResponseHeaders) isEvent()  {}
func (*Response) isEvent()         {}
func (*Failure) isEvent()          {}

// IsTerminal reports whether ev ends its stream
func IsTerminal(ev Event) bool {
	switch ev.(type) {
	case *Response, *Failure:
		return true
	default:
		return false
	}
}

// Success reports whether the status is in the 2xx range
func (r *Response) Success() bool {
	return r.Status >= 200 && r.Status < 300
}

// StatusError returns a *StatusError for non-2xx responses and nil otherwise
func (r *Response) StatusError() error {
	if r.Success() {
		return nil
	}
	return &StatusError{Status: r.Status, Header: r.Header, Body: r.Body, URL: r.URL}
}

// Clone returns a copy of the response with independent headers.
// The body is shared since response bodies are never modified.
func (r *Response) Clone() *Response {
	return &Response{
		Status: r.Status,
		Header: r.Header.Clone(),
		Body:   r.Body,
		URL:    r.URL,
	}
}
