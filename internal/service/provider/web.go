package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
)

// maxBodyErrorSize is the amount of the response body kept when the request fails.
const maxBodyErrorSize = 1024

type webClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type webClientTransport struct {
	client webClient
}

func (w webClientTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return w.client.Do(req)
}

// WebConfig holds the request configuration.
type WebConfig struct {
	Header http.Header
}

// Web handle the download of markdown served by HTTP endpoints.
type Web struct {
	Config          WebConfig
	ConfigOverwrite map[string]WebConfig

	client    webClient
	regex     regexp.Regexp
	endpoints []string
}

// Init internal state.
func (w *Web) Init() error {
	if err := w.initRegex(); err != nil {
		return fmt.Errorf("fail to initialize the regex: %w", err)
	}
	w.initHTTP()

	// Longer endpoints first, so the most specific overwrite wins.
	w.endpoints = make([]string, 0, len(w.ConfigOverwrite))
	for endpoint := range w.ConfigOverwrite {
		w.endpoints = append(w.endpoints, endpoint)
	}
	sort.Slice(w.endpoints, func(i, j int) bool {
		return len(w.endpoints[i]) > len(w.endpoints[j])
	})
	return nil
}

// Authority checks if the web provider is responsible to load the source.
func (w Web) Authority(uri string) bool {
	return w.regex.Match([]byte(uri))
}

// Fetch downloads the content.
func (w Web) Fetch(ctx context.Context, uri string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("fail to create the HTTP request: %w", err)
	}
	for key, values := range w.header(uri) {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fail to execute the HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if (resp.StatusCode < 200) || (resp.StatusCode >= 300) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyErrorSize))
		return nil, newWebError(uri, req, resp, body)
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fail to read the response: %w", err)
	}
	return payload, nil
}

func (w Web) header(uri string) http.Header {
	for _, endpoint := range w.endpoints {
		if strings.HasPrefix(uri, endpoint) {
			return w.ConfigOverwrite[endpoint].Header
		}
	}
	return w.Config.Header
}

func (w *Web) initRegex() error {
	expr := `^(http|https):\/\/`
	regex, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("fail to compile the expression '%s': %w", expr, err)
	}
	w.regex = *regex
	return nil
}

func (w *Web) initHTTP() {
	if w.client == nil {
		w.client = &http.Client{}
	}

	w.client = &http.Client{
		Transport: webClientTransport{client: w.client},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			switch req.Response.StatusCode {
			case http.StatusPermanentRedirect, http.StatusMovedPermanently:
				return nil
			default:
				return errors.New("redirect not allowed")
			}
		},
	}
}
