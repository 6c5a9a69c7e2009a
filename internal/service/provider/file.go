package provider

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type fileParser interface {
	Render(payload []byte) ([]byte, error)
	SanitizedAnchorName(text string) string
}

// FileHelpers gives the file provider access to the filesystem.
type FileHelpers interface {
	stat(path string) (os.FileInfo, error)
	readFile(path string) ([]byte, error)
}

type fileHelpersOS struct{}

func (fileHelpersOS) stat(path string) (os.FileInfo, error) {
	return os.Stat(path)
}

func (fileHelpersOS) readFile(path string) ([]byte, error) {
	return ioutil.ReadFile(path)
}

// File checks the relative links. The target must exist and, when the link has a fragment into a Markdown file, the
// rendered page must have a heading with that id.
type File struct {
	// Path is the root used by the links starting with a slash.
	Path    string
	Parser  fileParser
	Helpers FileHelpers
}

// Init internal state.
func (f *File) Init() error {
	if f.Path == "" {
		return errors.New("missing 'path'")
	}
	if f.Parser == nil {
		return errors.New("missing 'parser'")
	}
	if f.Helpers == nil {
		f.Helpers = fileHelpersOS{}
	}
	return nil
}

// Authority checks if the file provider is responsible to process the entry.
func (File) Authority(uri string) bool {
	if strings.HasPrefix(uri, "//") {
		return false
	}
	endpoint, err := url.Parse(uri)
	return err == nil && endpoint.Scheme == "" && endpoint.Host == ""
}

// Valid check if the link is valid.
func (f File) Valid(_ context.Context, filePath, uri string) (bool, error) {
	endpoint, err := url.Parse(uri)
	if err != nil {
		return false, fmt.Errorf("fail to parse the uri '%s': %w", uri, err)
	}

	// A link like '#something' points to the file itself.
	var target string
	switch {
	case endpoint.Path == "":
		target = filePath
	case strings.HasPrefix(endpoint.Path, "/"):
		target = filepath.Join(f.Path, filepath.FromSlash(endpoint.Path))
	default:
		target = filepath.Join(filepath.Dir(filePath), filepath.FromSlash(endpoint.Path))
	}

	stat, err := f.Helpers.stat(target)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("fail to check the path stat: %w", err)
	}
	if stat.IsDir() || endpoint.Fragment == "" || filepath.Ext(target) != ".md" {
		return true, nil
	}
	return f.validAnchor(target, endpoint.Fragment)
}

func (f File) validAnchor(path, anchor string) (bool, error) {
	payload, err := f.Helpers.readFile(path)
	if err != nil {
		return false, fmt.Errorf("fail to read the file '%s': %w", path, err)
	}
	return markdownHasAnchor(f.Parser, payload, anchor)
}
