package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/google/go-github/github"
	"github.com/kr/pretty"
)

// errGitHubNotFound is returned by the API when the resource does not exist or the token cannot see it.
var errGitHubNotFound = errors.New("not found at GitHub")

type gitHubAPI interface {
	repository(ctx context.Context, repo string) error
	commit(ctx context.Context, repo, ref string) error
	issue(ctx context.Context, repo string, number int) error
	issueComment(ctx context.Context, repo string, id int64) error
	pullRequest(ctx context.Context, repo string, number int) error
	relatedPullRequests(ctx context.Context, repo, ref string) ([]int, error)

	// contents returns the file at the path, or nil for a directory.
	contents(ctx context.Context, repo, ref, path string) ([]byte, error)
}

type gitHubHTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type gitHubLinkKind int

const (
	gitHubUnknown gitHubLinkKind = iota
	gitHubOwner
	gitHubRepository
	gitHubCommit
	gitHubIssue
	gitHubPullRequest
	gitHubContent
)

type gitHubLink struct {
	kind     gitHubLinkKind
	repo     string
	ref      string
	path     string
	number   int
	comment  int64
	fragment string
}

// GitHub checks the links into the repositories of one owner through the GitHub API, so links into private
// repositories are checked with the owner's token. A fragment into a Markdown file must match a heading id of the
// file rendered by Parser.
type GitHub struct {
	HTTPClient gitHubHTTPClient
	Token      string
	Owner      string
	Parser     fileParser

	api gitHubAPI
}

// Init the internal state.
func (g *GitHub) Init() error {
	if g.HTTPClient == nil {
		return errors.New("missing 'httpClient'")
	}
	if g.Owner == "" {
		return errors.New("missing 'owner'")
	}
	if g.Parser == nil {
		return errors.New("missing 'parser'")
	}

	if g.api == nil {
		api := gitHubClient{token: g.Token, owner: g.Owner, httpClient: g.HTTPClient}
		if err := api.init(); err != nil {
			return fmt.Errorf("fail to initialize the GitHub client: %w", err)
		}
		g.api = api
	}
	return nil
}

// Authority checks if the link points to github.com or raw.githubusercontent.com under the owner.
func (g GitHub) Authority(uri string) bool {
	_, ok := g.parse(uri)
	return ok
}

// Valid check if the link is valid.
func (g GitHub) Valid(ctx context.Context, _, uri string) (bool, error) {
	link, ok := g.parse(uri)
	if !ok {
		return false, nil
	}

	valid, err := g.valid(ctx, link)
	switch {
	case errors.Is(err, errGitHubNotFound):
		return false, nil
	case err != nil:
		return false, gitHubError{base: err, owner: g.Owner, repository: link.repo}
	}
	return valid, nil
}

func (g GitHub) parse(uri string) (gitHubLink, bool) {
	endpoint, err := url.Parse(uri)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") {
		return gitHubLink{}, false
	}
	segments := strings.Split(strings.Trim(endpoint.Path, "/"), "/")
	if !strings.EqualFold(segments[0], g.Owner) {
		return gitHubLink{}, false
	}

	link := gitHubLink{fragment: endpoint.Fragment}
	if len(segments) > 1 {
		link.repo = segments[1]
	}

	switch strings.ToLower(endpoint.Host) {
	case "raw.githubusercontent.com":
		// /owner/repository/ref/path
		if len(segments) >= 4 {
			link.kind = gitHubContent
			link.ref = segments[2]
			link.path = strings.Join(segments[3:], "/")
		}
		return link, true
	case "github.com", "www.github.com":
	default:
		return gitHubLink{}, false
	}

	switch {
	case len(segments) == 1:
		link.kind = gitHubOwner
	case len(segments) == 2:
		link.kind = gitHubRepository
	case segments[2] == "commit" && len(segments) == 4:
		link.kind = gitHubCommit
		link.ref = segments[3]
	case segments[2] == "issues" && len(segments) == 4:
		link.kind = gitHubIssue
		link.number, err = strconv.Atoi(segments[3])
		if err != nil {
			link.kind = gitHubUnknown
		}
		if id := strings.TrimPrefix(link.fragment, "issuecomment-"); id != link.fragment {
			if link.comment, err = strconv.ParseInt(id, 10, 64); err != nil {
				link.kind = gitHubUnknown
			}
		}
	case segments[2] == "pull" && (len(segments) == 4 || len(segments) == 6 && segments[4] == "commits"):
		link.kind = gitHubPullRequest
		link.number, err = strconv.Atoi(segments[3])
		if err != nil {
			link.kind = gitHubUnknown
		}
		if len(segments) == 6 {
			link.ref = segments[5]
		}
	case (segments[2] == "blob" || segments[2] == "tree") && len(segments) >= 4:
		// The ref is taken to be a single segment; branches with a slash are not told apart from the path.
		link.kind = gitHubContent
		link.ref = segments[3]
		link.path = strings.Join(segments[4:], "/")
	default:
		// Other pages, such as the wiki or the actions, exist when the repository does.
		link.kind = gitHubRepository
	}
	return link, true
}

func (g GitHub) valid(ctx context.Context, link gitHubLink) (bool, error) {
	switch link.kind {
	case gitHubOwner:
		// The API has no way to check an owner the token may not list. The configuration is trusted.
		return true, nil
	case gitHubRepository:
		if err := g.api.repository(ctx, link.repo); err != nil {
			return false, fmt.Errorf("fail to consult the repository: %w", err)
		}
		return true, nil
	case gitHubCommit:
		if err := g.api.commit(ctx, link.repo, link.ref); err != nil {
			return false, fmt.Errorf("fail to consult the commit: %w", err)
		}
		return true, nil
	case gitHubIssue:
		return g.validIssue(ctx, link)
	case gitHubPullRequest:
		return g.validPullRequest(ctx, link)
	case gitHubContent:
		return g.validContent(ctx, link)
	}
	return false, nil
}

func (g GitHub) validIssue(ctx context.Context, link gitHubLink) (bool, error) {
	if err := g.api.issue(ctx, link.repo, link.number); err != nil {
		return false, fmt.Errorf("fail to consult the issue: %w", err)
	}
	if link.comment == 0 {
		return true, nil
	}
	if err := g.api.issueComment(ctx, link.repo, link.comment); err != nil {
		return false, fmt.Errorf("fail to consult the issue comment: %w", err)
	}
	return true, nil
}

func (g GitHub) validPullRequest(ctx context.Context, link gitHubLink) (bool, error) {
	if err := g.api.pullRequest(ctx, link.repo, link.number); err != nil {
		return false, fmt.Errorf("fail to consult the pull request: %w", err)
	}
	if link.ref == "" {
		return true, nil
	}

	ids, err := g.api.relatedPullRequests(ctx, link.repo, link.ref)
	if err != nil {
		return false, fmt.Errorf("fail to fetch the pull requests associated with the commit: %w", err)
	}
	for _, id := range ids {
		if id == link.number {
			return true, nil
		}
	}
	return false, nil
}

func (g GitHub) validContent(ctx context.Context, link gitHubLink) (bool, error) {
	payload, err := g.api.contents(ctx, link.repo, link.ref, link.path)
	if err != nil {
		return false, fmt.Errorf("fail to consult the content: %w", err)
	}
	if payload == nil || link.fragment == "" || path.Ext(link.path) != ".md" {
		return true, nil
	}
	return markdownHasAnchor(g.Parser, payload, link.fragment)
}

// gitHubError keeps the context of a failed API call so it can be shown to the user.
type gitHubError struct {
	base       error
	owner      string
	repository string
}

func (err gitHubError) Error() string {
	return err.base.Error()
}

func (err gitHubError) Unwrap() error {
	return err.base
}

func (err gitHubError) PrettyPrint() {
	var status int
	var response *github.ErrorResponse
	if errors.As(err.base, &response) && response.Response != nil {
		status = response.Response.StatusCode
	}
	pretty.Println(struct {
		Reason     string
		Status     int
		Owner      string
		Repository string
	}{err.base.Error(), status, err.owner, err.repository})
}
