package oauth

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
)

// maxTokenBody matches the limit x/oauth2 applies when reading token responses
const maxTokenBody = 1 << 20

// jsonTokenTransport labels a JSON object body as application/json so x/oauth2
// decodes it as JSON whatever Content-Type the token endpoint sent. Without it
// a JSON payload served as text/plain is parsed as a form and loses access_token.
type jsonTokenTransport struct {
	base http.RoundTripper
}

func (t *jsonTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "application/json" {
		return resp, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenBody))
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		resp.Header.Set("Content-Type", "application/json")
	}
	return resp, nil
}

// tokenHTTPClient returns a copy of c whose transport normalises token responses
func tokenHTTPClient(c *http.Client) *http.Client {
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport:     &jsonTokenTransport{base: base},
		CheckRedirect: c.CheckRedirect,
		Jar:           c.Jar,
		Timeout:       c.Timeout,
	}
}
