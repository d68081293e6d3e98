package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

type gitHubRepository interface {
	contents(ctx context.Context, repository, ref, path string) ([]byte, error)
}

// GitHub provider loads markdown files stored at the repositories of an owner.
type GitHub struct {
	HTTPClient *http.Client
	Token      string
	Owner      string

	repository gitHubRepository
	regexBlob  regexp.Regexp
	regexRaw   regexp.Regexp
}

// Init the internal state.
func (g *GitHub) Init() error {
	if g.HTTPClient == nil {
		return errors.New("missing 'httpClient")
	}

	if g.Owner == "" {
		return errors.New("missing 'owner'")
	}

	if g.repository == nil {
		api := githubAPI{token: g.Token, owner: g.Owner, httpClient: g.HTTPClient}
		if err := api.init(); err != nil {
			return fmt.Errorf("fail to initialize the GitHub client: %w", err)
		}
		g.repository = api
	}

	if err := g.initRegex(); err != nil {
		return fmt.Errorf("fail to initialize the regex expressions: %w", err)
	}

	return nil
}

// Authority checks if the github provider is responsible to load the source.
func (g GitHub) Authority(uri string) bool {
	for _, expr := range []regexp.Regexp{g.regexBlob, g.regexRaw} {
		if expr.Match([]byte(uri)) {
			return true
		}
	}
	return false
}

// Fetch the file from the repository.
func (g GitHub) Fetch(ctx context.Context, uri string) ([]byte, error) {
	for _, expr := range []regexp.Regexp{g.regexBlob, g.regexRaw} {
		fragments := expr.FindStringSubmatch(uri)
		if fragments == nil {
			continue
		}

		var (
			repository = fragments[expr.SubexpIndex("repository")]
			ref        = fragments[expr.SubexpIndex("ref")]
			path       = fragments[expr.SubexpIndex("path")]
		)
		payload, err := g.repository.contents(ctx, repository, ref, path)
		if err != nil {
			return nil, fmt.Errorf("fail to fetch '%s' from GitHub: %w", uri, err)
		}
		return payload, nil
	}
	return nil, fmt.Errorf("'%s' is not a GitHub file", uri)
}

func (g *GitHub) initRegex() error {
	compile := func(rawExpr string) (regexp.Regexp, error) {
		expr, err := regexp.Compile(rawExpr)
		if err != nil {
			return regexp.Regexp{}, fmt.Errorf("fail to compile the expression '%s': %w", rawExpr, err)
		}
		return *expr, nil
	}

	var err error
	regexBlob := fmt.Sprintf(
		`^(?P<schema>http|https):\/\/github\.com\/((?i)%s)\/(?P<repository>[^\/]+)\/blob\/(?P<ref>[^\/]+)\/(?P<path>[^#?]+)`,
		regexp.QuoteMeta(g.Owner),
	)
	g.regexBlob, err = compile(regexBlob)
	if err != nil {
		return err
	}

	regexRaw := fmt.Sprintf(
		`^(?P<schema>http|https):\/\/raw\.githubusercontent\.com\/((?i)%s)\/(?P<repository>[^\/]+)\/(?P<ref>[^\/]+)\/(?P<path>[^#?]+)`,
		regexp.QuoteMeta(g.Owner),
	)
	g.regexRaw, err = compile(regexRaw)
	if err != nil {
		return err
	}

	return nil
}
