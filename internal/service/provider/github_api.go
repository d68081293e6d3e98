package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/go-github/github"
	"golang.org/x/oauth2"
)

type githubAPI struct {
	token      string
	owner      string
	client     *github.Client
	httpClient *http.Client
}

func (g *githubAPI) init() error {
	if g.owner == "" {
		return errors.New("missing 'owner'")
	}

	if g.httpClient == nil {
		return errors.New("missing 'httpClient")
	}

	// Anonymous access is enough for public repositories.
	if g.token == "" {
		g.client = github.NewClient(g.httpClient)
		return nil
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, g.httpClient)
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: g.token})
	g.client = github.NewClient(oauth2.NewClient(ctx, ts))
	return nil
}

func (g githubAPI) contents(ctx context.Context, repository, ref, path string) ([]byte, error) {
	file, _, _, err := g.client.Repositories.GetContents(
		ctx, g.owner, repository, path, &github.RepositoryContentGetOptions{Ref: ref},
	)
	if err != nil {
		return nil, fmt.Errorf("fail to get the contents: %w", err)
	}
	if file == nil {
		return nil, fmt.Errorf("'%s' expected to be a file", path)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("fail to decode the contents: %w", err)
	}
	return []byte(content), nil
}
