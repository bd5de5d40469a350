package publish

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const DefaultAPIURL = "https://api.github.com"

type ContentsConfig struct {
	APIURL    string
	Token     string
	Repo      string
	Branch    string
	UserAgent string
	Timeout   time.Duration
}

// ContentsPublisher creates or updates single files through the GitHub contents API.
type ContentsPublisher struct {
	cfg     ContentsConfig
	owner   string
	name    string
	baseURL *url.URL
	client  *github.Client
	logger  *zap.Logger
}

func NewContentsPublisher(cfg ContentsConfig, logger *zap.Logger) (*ContentsPublisher, error) {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Votion-Snapshot-Bot"
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	owner, name, ok := strings.Cut(cfg.Repo, "/")
	if !ok || owner == "" || name == "" {
		return nil, fmt.Errorf("github repo must be owner/name, got %q", cfg.Repo)
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
	if err != nil {
		return nil, errors.Wrap(err, "parse github api url")
	}

	c := &ContentsPublisher{cfg: cfg, owner: owner, name: name, baseURL: baseURL, logger: logger}
	c.SetHTTPClient(&http.Client{Timeout: cfg.Timeout})
	return c, nil
}

// SetHTTPClient rebuilds the API client on top of client.
func (c *ContentsPublisher) SetHTTPClient(client *http.Client) {
	gh := github.NewClient(client).WithAuthToken(c.cfg.Token)
	gh.BaseURL = c.baseURL
	gh.UserAgent = c.cfg.UserAgent
	c.client = gh
}

// PutFile writes content to path, passing the current blob sha when the file already exists.
func (c *ContentsPublisher) PutFile(ctx context.Context, path string, content []byte, message string) error {
	sha, err := c.currentSHA(ctx, path)
	if err != nil {
		return errors.Wrap(err, "lookup existing file")
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(c.cfg.Branch),
	}
	if sha != "" {
		opts.SHA = github.String(sha)
		_, _, err = c.client.Repositories.UpdateFile(ctx, c.owner, c.name, path, opts)
	} else {
		_, _, err = c.client.Repositories.CreateFile(ctx, c.owner, c.name, path, opts)
	}
	if err != nil {
		return c.statusError(http.MethodPut, path, err)
	}

	c.logger.Info("pushed file", zap.String("path", path), zap.Bool("updated", sha != ""))
	return nil
}

// currentSHA returns the blob sha of path on the branch, or "" when the file does not exist.
func (c *ContentsPublisher) currentSHA(ctx context.Context, path string) (string, error) {
	file, _, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.name, path,
		&github.RepositoryContentGetOptions{Ref: c.cfg.Branch})
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", c.statusError(http.MethodGet, path, err)
	}
	if file == nil {
		return "", fmt.Errorf("%s is a directory", path)
	}
	return file.GetSHA(), nil
}

func (c *ContentsPublisher) statusError(method, path string, err error) error {
	var apiErr *github.ErrorResponse
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		return &StatusError{
			Method:  method,
			Path:    fmt.Sprintf("repos/%s/%s/contents/%s", c.owner, c.name, path),
			Status:  apiErr.Response.StatusCode,
			Message: apiErr.Message,
		}
	}
	return err
}
