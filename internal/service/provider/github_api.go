package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

type gitHubClient struct {
	token      string
	owner      string
	client     *github.Client
	httpClient gitHubHTTPClient
}

func (g *gitHubClient) init() error {
	if g.token == "" {
		return errors.New("missing 'token'")
	}
	if g.owner == "" {
		return errors.New("missing 'owner'")
	}
	if g.httpClient == nil {
		return errors.New("missing 'httpClient'")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token})
	g.client = github.NewClient(oauth2.NewClient(context.Background(), ts))
	return nil
}

func (g gitHubClient) repository(ctx context.Context, repo string) error {
	_, resp, err := g.client.Repositories.Get(ctx, g.owner, repo)
	return gitHubResponseError(resp, err)
}

func (g gitHubClient) commit(ctx context.Context, repo, ref string) error {
	_, resp, err := g.client.Repositories.GetCommitSHA1(ctx, g.owner, repo, ref, "")
	return gitHubResponseError(resp, err)
}

func (g gitHubClient) issue(ctx context.Context, repo string, number int) error {
	_, resp, err := g.client.Issues.Get(ctx, g.owner, repo, number)
	return gitHubResponseError(resp, err)
}

func (g gitHubClient) issueComment(ctx context.Context, repo string, id int64) error {
	_, resp, err := g.client.Issues.GetComment(ctx, g.owner, repo, id)
	return gitHubResponseError(resp, err)
}

func (g gitHubClient) pullRequest(ctx context.Context, repo string, number int) error {
	_, resp, err := g.client.PullRequests.Get(ctx, g.owner, repo, number)
	return gitHubResponseError(resp, err)
}

func (g gitHubClient) contents(ctx context.Context, repo, ref, path string) ([]byte, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	file, _, resp, err := g.client.Repositories.GetContents(ctx, g.owner, repo, path, opts)
	if err := gitHubResponseError(resp, err); err != nil {
		return nil, err
	}
	if file == nil {
		return nil, nil
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("fail to decode the content of '%s': %w", path, err)
	}
	return []byte(content), nil
}

// relatedPullRequests is not covered by the GitHub client, so the endpoint is called directly.
//
// For more information: https://developer.github.com/v3/repos/commits/#list-pull-requests-associated-with-commit
func (g gitHubClient) relatedPullRequests(ctx context.Context, repo, ref string) ([]int, error) {
	endpoint := fmt.Sprintf("%srepos/%s/%s/commits/%s/pulls", g.client.BaseURL, g.owner, repo, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("fail to create request to GitHub: %w", err)
	}
	req.Header.Add("accept", "application/vnd.github.v3+json")
	req.Header.Add("accept", "application/vnd.github.groot-preview+json")
	req.Header.Add("authorization", fmt.Sprintf("token %s", g.token))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fail to execute the request to GitHub: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errGitHubNotFound
	default:
		return nil, fmt.Errorf("invalid response code: %d", resp.StatusCode)
	}

	var pulls []struct {
		Number int `json:"number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pulls); err != nil {
		return nil, fmt.Errorf("fail to unmarshal the response from GitHub: %w", err)
	}
	ids := make([]int, 0, len(pulls))
	for _, pull := range pulls {
		ids = append(ids, pull.Number)
	}
	return ids, nil
}

// gitHubResponseError turns a missing resource into errGitHubNotFound.
func gitHubResponseError(resp *github.Response, err error) error {
	if err == nil {
		return nil
	}
	if resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNotFound {
		return errGitHubNotFound
	}
	return err
}
