package scan

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/sirupsen/logrus"

	"nitro/markdown-safe-html/internal/service"
)

// DefaultConcurrency is the amount of files rendered at the same time when Concurrency is zero.
const DefaultConcurrency = 4

var linkSelector = cascadia.MustCompile("a[href], img[src]")

type scanParser interface {
	Render(payload []byte) ([]byte, error)
	Raw(payload []byte) ([]byte, error)
}

// Scan is responsible for reading and rendering the markdown files and extracting their links.
type Scan struct {
	IgnoreFile  []string
	IgnoreLink  []string
	Parser      scanParser
	Concurrency int

	// Raw also keeps the unsanitized output of every page.
	Raw bool

	Logger logrus.FieldLogger

	regexFile []*regexp.Regexp
	regexLink []*regexp.Regexp
}

// Init the internal state.
func (s *Scan) Init() error {
	if s.Parser == nil {
		return errors.New("missing 'parser'")
	}
	if s.Concurrency < 0 {
		return errors.New("invalid 'concurrency'")
	}
	if s.Concurrency == 0 {
		s.Concurrency = DefaultConcurrency
	}
	if s.Logger == nil {
		s.Logger = logrus.StandardLogger()
	}

	var err error
	if s.regexFile, err = compile(s.IgnoreFile); err != nil {
		return fmt.Errorf("fail to compile the file ignore list: %w", err)
	}
	if s.regexLink, err = compile(s.IgnoreLink); err != nil {
		return fmt.Errorf("fail to compile the link ignore list: %w", err)
	}
	return nil
}

// Process the file or directory. The pages are sorted by path.
func (s Scan) Process(ctx context.Context, path string) ([]service.Page, error) {
	files, err := s.listFiles(path)
	if err != nil {
		return nil, fmt.Errorf("fail to fetch the markdown files: %w", err)
	}
	sort.Strings(files)
	s.Logger.WithField("path", path).Debugf("%d markdown files found", len(files))

	var (
		pages = make([]service.Page, len(files))
		errs  = make([]error, len(files))
		sem   = make(chan struct{}, s.Concurrency)
		wg    sync.WaitGroup
	)
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, err
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		}

		wg.Add(1)
		go func(i int, file string) {
			defer func() {
				<-sem
				wg.Done()
			}()
			pages[i], errs[i] = s.processFile(file)
		}(i, file)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fail to process the file '%s': %w", files[i], err)
		}
	}
	return pages, nil
}

// Entries flatten the pages links into entries.
func (Scan) Entries(pages []service.Page) []service.Entry {
	var result []service.Entry
	for _, page := range pages {
		for _, link := range page.Links {
			result = append(result, service.Entry{Path: page.Path, Link: link})
		}
	}
	return result
}

func (s Scan) listFiles(path string) ([]string, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("fail to check the path stat: %w", err)
	}
	if !stat.IsDir() {
		return []string{path}, nil
	}

	var paths []string
	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".md" {
			return nil
		}
		if match(s.regexFile, path) {
			s.Logger.WithField("path", path).Debug("file ignored")
			return nil
		}
		paths = append(paths, path)
		return nil
	}
	if err := filepath.Walk(path, walkFn); err != nil {
		return nil, fmt.Errorf("fail to fetch the files paths: %w", err)
	}
	return paths, nil
}

func (s Scan) processFile(path string) (service.Page, error) {
	page := service.Page{Path: path}
	payload, err := ioutil.ReadFile(path)
	if err != nil {
		return page, fmt.Errorf("fail to read the file: %w", err)
	}

	logger := s.Logger.WithField("path", path)
	page.HTML, err = s.Parser.Render(payload)
	if err != nil {
		// The page is kept empty, the same way the pipeline fails closed.
		logger.WithError(err).Warn("fail to render the file")
		return page, nil
	}
	if s.Raw {
		if page.Raw, err = s.Parser.Raw(payload); err != nil {
			return page, fmt.Errorf("fail to render the raw output: %w", err)
		}
	}

	links, err := s.extractLinks(page.HTML)
	if err != nil {
		return page, fmt.Errorf("fail to extract links: %w", err)
	}
	page.Links = removeDuplicates(links)
	logger.WithField("links", len(page.Links)).Debug("file rendered")
	return page, nil
}

func (s Scan) extractLinks(payload []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("fail to parse the HTML: %w", err)
	}

	var links []string
	doc.FindMatcher(linkSelector).Each(func(_ int, selection *goquery.Selection) {
		link, ok := selection.Attr("href")
		if !ok {
			link, ok = selection.Attr("src")
		}
		if !ok || link == "" || match(s.regexLink, link) {
			return
		}
		links = append(links, link)
	})
	return links, nil
}

func compile(exprs []string) ([]*regexp.Regexp, error) {
	result := make([]*regexp.Regexp, 0, len(exprs))
	for _, expr := range exprs {
		regex, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("fail to compile regex '%s': %w", expr, err)
		}
		result = append(result, regex)
	}
	return result, nil
}

func match(regexes []*regexp.Regexp, value string) bool {
	for _, regex := range regexes {
		if regex.MatchString(value) {
			return true
		}
	}
	return false
}

func removeDuplicates(elements []string) []string {
	index := make(map[string]struct{}, len(elements))
	for _, element := range elements {
		index[element] = struct{}{}
	}

	result := make([]string, 0, len(index))
	for key := range index {
		result = append(result, key)
	}
	sort.Strings(result)
	return result
}
