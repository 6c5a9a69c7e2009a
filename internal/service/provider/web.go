package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var webRegex = regexp.MustCompile(`^(http|https):\/\/`)

// Amount of the response body kept for the failure details.
const webErrorBodyLimit = 1 << 10

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

// Web handle the verification of HTTP endpoints.
type Web struct {
	Config WebConfig

	// ConfigOverwrite replaces Config for the links starting with the key. The longest key wins.
	ConfigOverwrite map[string]WebConfig

	client webClient
}

// Init internal state.
func (w *Web) Init() error {
	for endpoint := range w.ConfigOverwrite {
		if endpoint == "" {
			return errors.New("invalid empty 'configOverwrite' endpoint")
		}
	}
	w.initHTTP()
	return nil
}

// Authority checks if the web provider is responsible to process the entry.
func (Web) Authority(uri string) bool {
	return webRegex.MatchString(uri)
}

// Valid check if the link is valid. When the link has a fragment the page must have an element with a matching id or
// name.
func (w Web) Valid(ctx context.Context, _, uri string) (bool, error) {
	endpoint, err := url.Parse(uri)
	if err != nil {
		return false, fmt.Errorf("fail to parse uri: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return false, fmt.Errorf("fail to create the HTTP request: %w", err)
	}
	for key, values := range w.config(uri).Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return false, webError{base: err, requestHeader: req.Header}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := ioutil.ReadAll(io.LimitReader(resp.Body, webErrorBodyLimit))
		return false, webError{
			base:           fmt.Errorf("unexpected status code %d", resp.StatusCode),
			requestHeader:  req.Header,
			responseHeader: resp.Header,
			status:         resp.StatusCode,
			body:           string(body),
		}
	}

	validAnchor, err := w.validAnchor(resp.Body, endpoint.Fragment)
	if err != nil {
		return false, fmt.Errorf("fail to verify the anchor: %w", err)
	}
	return validAnchor, nil
}

func (w Web) config(uri string) WebConfig {
	var (
		result = w.Config
		size   = -1
	)
	for endpoint, cfg := range w.ConfigOverwrite {
		if strings.HasPrefix(uri, endpoint) && len(endpoint) > size {
			result, size = cfg, len(endpoint)
		}
	}
	return result
}

func (Web) validAnchor(body io.Reader, anchor string) (bool, error) {
	if anchor == "" {
		return true, nil
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return false, fmt.Errorf("fail to parse the response: %w", err)
	}
	return hasAnchor(doc, anchor, "id", "name"), nil
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
