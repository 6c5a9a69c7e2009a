package main

import (
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"nitro/markdown-safe-html/internal"
)

const testConfig = `
ignore:
  link:
    - ^https://localhost
  file:
    - vendor/
render:
  maxInputBytes: 2048
  headingIDs: true
  concurrency: 2
policy:
  allowedTags: [p, a, em]
  allowedAttributes:
    a: [href]
provider:
  web:
    header:
      User-Agent: [checker]
    overwrite:
      - endpoint: https://api.go.dev
        header:
          Authorization: [token]
  github:
    nitro:
      owner: nitro
      token: ${MARKDOWN_SAFE_HTML_TEST_TOKEN}
    diligent:
      owner: diligent
      token: secret
`

func TestConfigClient(t *testing.T) {
	require.NoError(t, os.Setenv("MARKDOWN_SAFE_HTML_TEST_TOKEN", "from-env"))
	defer os.Unsetenv("MARKDOWN_SAFE_HTML_TEST_TOKEN")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, ioutil.WriteFile(path, []byte(testConfig), 0o600))

	client, err := configClient(path)
	require.NoError(t, err)

	require.Equal(t, []string{"^https://localhost"}, client.Ignore.Link)
	require.Equal(t, []string{"vendor/"}, client.Ignore.File)
	require.Equal(t, 2048, client.Pipeline.MaxInputBytes)
	require.True(t, client.Pipeline.HeadingIDs)
	require.False(t, client.Pipeline.Breaks)
	require.Equal(t, 2, client.Pipeline.Concurrency)
	require.Equal(t, []string{"p", "a", "em"}, client.Policy.AllowedTags)
	require.Equal(t, []string{"href"}, client.Policy.AllowedAttributes["a"])
	require.Nil(t, client.Policy.AllowedSchemes)

	// Keys come lowercased from the configuration; the web provider canonicalizes them on the request.
	require.Equal(t, http.Header{"user-agent": {"checker"}}, client.Provider.Web.Config)
	require.Equal(t, http.Header{"authorization": {"token"}}, client.Provider.Web.ConfigOverwrite["https://api.go.dev"])
	require.Equal(t, []internal.ClientProviderGitHub{
		{Owner: "diligent", Token: "secret"},
		{Owner: "nitro", Token: "from-env"},
	}, client.Provider.GitHub)
}

func TestConfigClientDefaults(t *testing.T) {
	t.Parallel()

	client, err := configClient("")
	require.NoError(t, err)
	require.Nil(t, client.Policy.AllowedTags)
	require.Zero(t, client.Pipeline.MaxInputBytes)

	_, err = configClient(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
