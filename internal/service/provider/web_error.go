package provider

import (
	"fmt"
	"io"
	"net/http"

	"github.com/kr/pretty"
)

// webError is returned when the markdown source answers with a non 2xx status.
type webError struct {
	base           error
	uri            string
	requestHeader  http.Header
	responseHeader http.Header
	status         int
	body           string
}

func newWebError(uri string, req *http.Request, resp *http.Response, body []byte) webError {
	return webError{
		base:           fmt.Errorf("invalid response status code '%d' from '%s'", resp.StatusCode, uri),
		uri:            uri,
		requestHeader:  req.Header,
		responseHeader: resp.Header,
		status:         resp.StatusCode,
		body:           string(body),
	}
}

func (err webError) Error() string {
	return err.base.Error()
}

// PrettyPrint dumps the exchange with the source, the body is truncated at maxBodyErrorSize.
func (err webError) PrettyPrint(w io.Writer) {
	pretty.Fprintf(w, "%# v\n", struct {
		URI            string
		Status         int
		RequestHeader  http.Header
		ResponseHeader http.Header
		Body           string
	}{err.uri, err.status, err.requestHeader, err.responseHeader, err.body})
}
