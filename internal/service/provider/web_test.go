package provider

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"nitro/markdown-safe-html/internal/service"
)

func TestWebInit(t *testing.T) {
	t.Parallel()

	var client Web
	require.NoError(t, client.Init())

	client = Web{ConfigOverwrite: map[string]WebConfig{"": {}}}
	require.EqualError(t, client.Init(), "invalid empty 'configOverwrite' endpoint")
}

func TestWebAuthority(t *testing.T) {
	t.Parallel()

	var client Web
	require.NoError(t, client.Init())

	tests := []struct {
		message      string
		uri          string
		hasAuthority bool
	}{
		{message: "have authority over https", uri: "https://website.com", hasAuthority: true},
		{message: "have authority over http", uri: "http://website.com", hasAuthority: true},
		{message: "have no authority over a relative file", uri: "../file.md", hasAuthority: false},
		{message: "have no authority over a rooted path", uri: "/folder", hasAuthority: false},
		{message: "have no authority over ftp", uri: "ftp://website.com", hasAuthority: false},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.hasAuthority, client.Authority(tt.uri))
		})
	}
}

func TestWebValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message  string
		uri      string
		client   webClientMock
		isValid  bool
		enhanced bool
	}{
		{
			message: "attest the URI as valid",
			uri:     "https://go.dev",
			isValid: true,
			client: webClientMock{
				steps: []webClientStep{{url: "https://go.dev", status: http.StatusOK}},
			},
		},
		{
			message: "attest the URI as valid after a moved permanently redirect (301)",
			uri:     "http://go.dev",
			isValid: true,
			client: webClientMock{
				steps: []webClientStep{
					{url: "http://go.dev", status: http.StatusMovedPermanently, location: "https://go.dev"},
					{url: "https://go.dev", status: http.StatusOK},
				},
			},
		},
		{
			message: "attest the URI as valid after a permanent redirect (308)",
			uri:     "http://go.dev",
			isValid: true,
			client: webClientMock{
				steps: []webClientStep{
					{url: "http://go.dev", status: http.StatusPermanentRedirect, location: "https://go.dev"},
					{url: "https://go.dev", status: http.StatusOK},
				},
			},
		},
		{
			message: "attest the URI as valid when the anchor matches an id",
			uri:     "https://go.dev#title",
			isValid: true,
			client: webClientMock{
				steps: []webClientStep{{url: "https://go.dev#title", status: http.StatusOK, body: `<h1 id="title">T</h1>`}},
			},
		},
		{
			message: "attest the URI as valid when the anchor matches a name",
			uri:     "https://go.dev#title",
			isValid: true,
			client: webClientMock{
				steps: []webClientStep{{url: "https://go.dev#title", status: http.StatusOK, body: `<a name="title"></a>`}},
			},
		},
		{
			message: "attest the URI as invalid because of a not found anchor",
			uri:     "https://go.dev#broken",
			isValid: false,
			client: webClientMock{
				steps: []webClientStep{{url: "https://go.dev#broken", status: http.StatusOK, body: `<a href="#broken">x</a>`}},
			},
		},
		{
			message:  "attest the URI as invalid because of a temporary redirect",
			uri:      "http://go.dev",
			isValid:  false,
			enhanced: true,
			client: webClientMock{
				steps: []webClientStep{{url: "http://go.dev", status: http.StatusTemporaryRedirect, location: "https://go.dev"}},
			},
		},
		{
			message:  "attest the URI as invalid because of a not found status",
			uri:      "https://go.dev",
			isValid:  false,
			enhanced: true,
			client: webClientMock{
				steps: []webClientStep{{url: "https://go.dev", status: http.StatusNotFound, body: "not found"}},
			},
		},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run("Should "+tt.message, func(t *testing.T) {
			t.Parallel()
			client := Web{client: &tt.client}
			require.NoError(t, client.Init())

			isValid, err := client.Valid(context.Background(), "", tt.uri)
			require.Equal(t, tt.isValid, isValid)
			if !tt.enhanced {
				require.NoError(t, err)
				return
			}
			var enhanced service.EnhancedError
			require.True(t, errors.As(err, &enhanced))
		})
	}
}

func TestWebValidHeader(t *testing.T) {
	t.Parallel()

	mock := &webClientMock{
		steps: []webClientStep{
			{url: "https://go.dev/a", status: http.StatusOK},
			{url: "https://api.go.dev/b", status: http.StatusOK},
		},
	}
	client := Web{
		Config: WebConfig{Header: http.Header{"User-Agent": {"checker"}}},
		ConfigOverwrite: map[string]WebConfig{
			"https://api":        {Header: http.Header{"Authorization": {"short"}}},
			"https://api.go.dev": {Header: http.Header{"Authorization": {"token"}}},
		},
		client: mock,
	}
	require.NoError(t, client.Init())

	for _, uri := range []string{"https://go.dev/a", "https://api.go.dev/b"} {
		isValid, err := client.Valid(context.Background(), "", uri)
		require.NoError(t, err)
		require.True(t, isValid)
	}
	require.Equal(t, "checker", mock.headers[0].Get("User-Agent"))
	require.Empty(t, mock.headers[0].Get("Authorization"))
	require.Equal(t, "token", mock.headers[1].Get("Authorization"))
	require.Empty(t, mock.headers[1].Get("User-Agent"))
}

type webClientStep struct {
	url      string
	status   int
	location string
	body     string
}

type webClientMock struct {
	steps   []webClientStep
	headers []http.Header
	index   int
}

func (c *webClientMock) Do(req *http.Request) (*http.Response, error) {
	if c.index >= len(c.steps) {
		return nil, errors.New("unexpected request")
	}
	step := c.steps[c.index]
	c.index++
	if step.url != req.URL.String() {
		return nil, errors.New("invalid endpoint")
	}
	c.headers = append(c.headers, req.Header.Clone())

	resp := &http.Response{
		StatusCode: step.status,
		Header:     http.Header{},
		Body:       ioutil.NopCloser(bytes.NewBufferString(step.body)),
		Request:    req,
	}
	if step.location != "" {
		resp.Header.Set("Location", step.location)
	}
	return resp, nil
}
