package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/renameio"
	"github.com/logrusorgru/aurora"
	"github.com/sirupsen/logrus"

	"nitro/markdown-safe-html/internal/service"
	"nitro/markdown-safe-html/internal/service/parser"
	"nitro/markdown-safe-html/internal/service/provider"
	"nitro/markdown-safe-html/internal/service/sanitizer"
	"nitro/markdown-safe-html/internal/service/scan"
	"nitro/markdown-safe-html/internal/service/worker"
)

// Header written at the top of every raw output file.
const rawHeader = "<!-- UNSAFE: unsanitized renderer output, do not display -->\n"

// ClientIgnore holds the ignore list for links and files.
type ClientIgnore struct {
	Link []string
	File []string
}

// ClientPipeline holds the limits and options of the Markdown pipeline.
type ClientPipeline struct {
	MaxInputBytes int
	MaxDepth      int
	HeadingIDs    bool
	Breaks        bool
	Concurrency   int
}

// ClientProviderWeb holds the configuration for the web provider.
type ClientProviderWeb struct {
	Config          http.Header
	ConfigOverwrite map[string]http.Header
}

// ClientProviderGitHub holds the configuration for the GitHub provider of one owner.
type ClientProviderGitHub struct {
	Owner string
	Token string
}

// ClientProvider holds the configuration for the providers.
type ClientProvider struct {
	Web    ClientProviderWeb
	GitHub []ClientProviderGitHub
}

// Client is responsible to bootstrap the application.
type Client struct {
	Path     string
	Output   string
	Raw      bool
	Ignore   ClientIgnore
	Pipeline ClientPipeline
	Policy   sanitizer.PolicyConfig
	Provider ClientProvider
	Logger   logrus.FieldLogger
	Stdout   io.Writer

	parser parser.Markdown
}

// Render writes a '.html' file for every Markdown file found at the path. With Raw set it also writes the unsanitized
// '.raw.html' file.
func (c Client) Render(ctx context.Context) error {
	if err := c.init(); err != nil {
		return fmt.Errorf("fail during init: %w", err)
	}

	pages, err := c.scan(ctx)
	if err != nil {
		return err
	}

	for _, page := range pages {
		target, err := c.outputPath(page.Path)
		if err != nil {
			return fmt.Errorf("fail to resolve the output of '%s': %w", page.Path, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("fail to create the output directory: %w", err)
		}
		if err := renameio.WriteFile(target+".html", page.HTML, 0o644); err != nil {
			return fmt.Errorf("fail to write the file '%s': %w", target+".html", err)
		}
		if c.Raw {
			raw := append([]byte(rawHeader), page.Raw...)
			if err := renameio.WriteFile(target+".raw.html", raw, 0o644); err != nil {
				return fmt.Errorf("fail to write the file '%s': %w", target+".raw.html", err)
			}
		}
		c.Logger.WithField("path", page.Path).Infof("rendered to '%s.html'", target)
	}
	return nil
}

// Check validates the links of every Markdown file found at the path. The return is true when any link is invalid.
func (c Client) Check(ctx context.Context) (bool, error) {
	if err := c.init(); err != nil {
		return false, fmt.Errorf("fail during init: %w", err)
	}

	// Anchors into Markdown files are matched against heading ids.
	c.parser.HeadingIDs = true
	if err := c.parser.Init(); err != nil {
		return false, fmt.Errorf("fail to initialize the parser: %w", err)
	}

	pages, err := c.scan(ctx)
	if err != nil {
		return false, err
	}
	s := scan.Scan{}
	entries := s.Entries(pages)

	providers, err := c.providers()
	if err != nil {
		return false, err
	}
	w := worker.Worker{Providers: providers, Logger: c.Logger}
	entries, err = w.Process(ctx, entries)
	if err != nil {
		return false, fmt.Errorf("fail to process the link: %w", err)
	}
	return c.output(entries), nil
}

// Sanitize filters the HTML from r with the configured policy and writes the result to w.
func (c Client) Sanitize(r io.Reader, w io.Writer) error {
	if err := c.init(); err != nil {
		return fmt.Errorf("fail during init: %w", err)
	}

	payload, err := ioutil.ReadAll(io.LimitReader(r, int64(c.parser.MaxInputBytes)+1))
	if err != nil {
		return fmt.Errorf("fail to read the input: %w", err)
	}
	out, err := c.parser.Sanitize(payload)
	if err != nil {
		return fmt.Errorf("fail to sanitize the input: %w", err)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("fail to write the output: %w", err)
	}
	return nil
}

func (c *Client) init() error {
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}

	c.parser = parser.Markdown{
		Policy:        sanitizer.NewPolicy(c.Policy),
		MaxInputBytes: c.Pipeline.MaxInputBytes,
		MaxDepth:      c.Pipeline.MaxDepth,
		HeadingIDs:    c.Pipeline.HeadingIDs,
		Breaks:        c.Pipeline.Breaks,
	}
	if err := c.parser.Init(); err != nil {
		return fmt.Errorf("fail to initialize the parser: %w", err)
	}
	return nil
}

func (c Client) scan(ctx context.Context) ([]service.Page, error) {
	if c.Path == "" {
		return nil, errors.New("missing 'path'")
	}
	if _, err := os.Stat(c.Path); err != nil {
		return nil, fmt.Errorf("fail to check the path: %w", err)
	}

	s := scan.Scan{
		IgnoreFile:  c.Ignore.File,
		IgnoreLink:  c.Ignore.Link,
		Parser:      c.parser,
		Concurrency: c.Pipeline.Concurrency,
		Raw:         c.Raw,
		Logger:      c.Logger,
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("fail to initialize the scan service: %w", err)
	}
	pages, err := s.Process(ctx, c.Path)
	if err != nil {
		return nil, fmt.Errorf("fail to scan the files: %w", err)
	}
	return pages, nil
}

func (c Client) providers() ([]worker.Provider, error) {
	var email provider.Email
	if err := email.Init(); err != nil {
		return nil, fmt.Errorf("fail to initialize the email provider: %w", err)
	}

	providers := []worker.Provider{email}
	for _, config := range c.Provider.GitHub {
		github := provider.GitHub{
			HTTPClient: http.DefaultClient,
			Token:      config.Token,
			Owner:      config.Owner,
			Parser:     c.parser,
		}
		if err := github.Init(); err != nil {
			return nil, fmt.Errorf("fail to initialize the GitHub provider of '%s': %w", config.Owner, err)
		}
		providers = append(providers, github)
	}

	overwrites := make(map[string]provider.WebConfig, len(c.Provider.Web.ConfigOverwrite))
	for key, value := range c.Provider.Web.ConfigOverwrite {
		overwrites[key] = provider.WebConfig{Header: value}
	}
	web := provider.Web{
		Config:          provider.WebConfig{Header: c.Provider.Web.Config},
		ConfigOverwrite: overwrites,
	}
	if err := web.Init(); err != nil {
		return nil, fmt.Errorf("fail to initialize the web provider: %w", err)
	}

	file := provider.File{Path: c.root(), Parser: c.parser}
	if err := file.Init(); err != nil {
		return nil, fmt.Errorf("fail to initialize the file provider: %w", err)
	}

	return append(providers, web, file), nil
}

// root is the directory the rendered files and the rooted links are relative to.
func (c Client) root() string {
	if stat, err := os.Stat(c.Path); err == nil && !stat.IsDir() {
		return filepath.Dir(c.Path)
	}
	return c.Path
}

// outputPath returns the path of the rendered file without the extension.
func (c Client) outputPath(path string) (string, error) {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	if c.Output == "" {
		return base, nil
	}
	rel, err := filepath.Rel(c.root(), base)
	if err != nil {
		return "", err
	}
	return filepath.Join(c.Output, rel), nil
}

func (c Client) output(entries []service.Entry) bool {
	var (
		result bool
		groups = c.aggregate(entries)
	)
	for _, group := range groups {
		if !hasInvalidLink(group.entries) {
			continue
		}
		result = true

		fmt.Fprint(c.Stdout, aurora.Bold(c.relativePath(group.path)))
		for _, entry := range group.entries {
			if entry.Valid {
				continue
			}
			fmt.Fprintf(c.Stdout, "\n%s %s", aurora.Bold(aurora.Gray(24, "-")), entry.Link)
		}
		fmt.Fprint(c.Stdout, "\n\n")
	}

	// Printing the details of the failure.
	for _, group := range groups {
		for _, entry := range group.entries {
			if entry.Valid || entry.FailReason == nil {
				continue
			}
			fmt.Fprintf(
				c.Stdout, "The link '%s' at the file '%s' failed because of:\n",
				aurora.Bold(entry.Link), aurora.Bold(c.relativePath(group.path)),
			)
			entry.FailReason()
			fmt.Fprint(c.Stdout, "\n")
		}
	}

	return result
}

type entryGroup struct {
	path    string
	entries []service.Entry
}

func (Client) aggregate(entries []service.Entry) []entryGroup {
	index := make(map[string]int)
	var groups []entryGroup
	for _, entry := range entries {
		i, ok := index[entry.Path]
		if !ok {
			i = len(groups)
			index[entry.Path] = i
			groups = append(groups, entryGroup{path: entry.Path})
		}
		groups[i].entries = append(groups[i].entries, entry)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].path < groups[j].path })
	for _, group := range groups {
		entries := group.entries
		sort.Slice(entries, func(i, j int) bool { return entries[i].Link < entries[j].Link })
	}
	return groups
}

func hasInvalidLink(entries []service.Entry) bool {
	for _, entry := range entries {
		if !entry.Valid {
			return true
		}
	}
	return false
}

func (c Client) relativePath(path string) string {
	rel, err := filepath.Rel(c.root(), path)
	if err != nil {
		return path
	}
	return rel
}
