// Package github stores the document as a file in a GitHub repository using
// the contents API. The file's blob sha serves as the version token, which
// gives the conditional write for free: GitHub rejects an update whose sha is
// not the current one.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	gh "github.com/google/go-github/v66/github"

	"github.com/example/openlibrary-kontrolle/internal/persistence"
)

// Config locates the document file.
type Config struct {
	Owner  string
	Repo   string
	Branch string
	Path   string

	// CommitterName and CommitterEmail are optional; GitHub uses the token
	// owner when both are empty.
	CommitterName  string
	CommitterEmail string

	// Location is the zone used for the date in commit messages.
	Location *time.Location
	Now      func() time.Time
}

// Store implements persistence.DocumentStore on top of a go-github client.
type Store struct {
	client *gh.Client
	cfg    Config
}

var _ persistence.DocumentStore = (*Store)(nil)

// New returns a store using client. Callers configure authentication and the
// base URL on the client.
func New(client *gh.Client, cfg Config) (*Store, error) {
	if client == nil {
		return nil, errors.New("github: client is required")
	}
	var missing []string
	if cfg.Owner == "" {
		missing = append(missing, "owner")
	}
	if cfg.Repo == "" {
		missing = append(missing, "repo")
	}
	if cfg.Path == "" {
		missing = append(missing, "path")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("github: missing %s", strings.Join(missing, ", "))
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Store{client: client, cfg: cfg}, nil
}

// NewWithToken builds an authenticated client for api.github.com.
func NewWithToken(token string, httpClient *http.Client, cfg Config) (*Store, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return New(client, cfg)
}

// Location implements persistence.Named.
func (s *Store) Location() string {
	ref := s.cfg.Branch
	if ref == "" {
		ref = "HEAD"
	}
	return fmt.Sprintf("github:%s/%s@%s:%s", s.cfg.Owner, s.cfg.Repo, ref, s.cfg.Path)
}

// Fetch implements persistence.DocumentStore.
func (s *Store) Fetch(ctx context.Context) (persistence.Blob, bool, error) {
	var opts *gh.RepositoryContentGetOptions
	if s.cfg.Branch != "" {
		opts = &gh.RepositoryContentGetOptions{Ref: s.cfg.Branch}
	}

	file, dir, resp, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	if err != nil {
		if statusOf(resp, err) == http.StatusNotFound {
			return persistence.Blob{}, false, nil
		}
		return persistence.Blob{}, false, s.classify("fetch", resp, err)
	}
	if file == nil {
		return persistence.Blob{}, false, fmt.Errorf("github: %s is a directory with %d entries", s.cfg.Path, len(dir))
	}

	content, err := s.decode(ctx, file)
	if err != nil {
		return persistence.Blob{}, false, err
	}
	return persistence.Blob{Content: content, Version: persistence.Version(file.GetSHA())}, true, nil
}

// decode returns the file bytes. Files above 1 MB come back without inline
// content and are read through the blob endpoint instead.
func (s *Store) decode(ctx context.Context, file *gh.RepositoryContent) ([]byte, error) {
	if file.GetEncoding() == "none" {
		raw, resp, err := s.client.Git.GetBlobRaw(ctx, s.cfg.Owner, s.cfg.Repo, file.GetSHA())
		if err != nil {
			return nil, s.classify("fetch blob", resp, err)
		}
		return raw, nil
	}
	text, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("github: decode %s: %w", s.cfg.Path, err)
	}
	return []byte(text), nil
}

// Write implements persistence.DocumentStore.
func (s *Store) Write(ctx context.Context, content []byte, expected persistence.Version) (persistence.Version, error) {
	opts := &gh.RepositoryContentFileOptions{
		Message: gh.String(s.commitMessage()),
		Content: content,
	}
	if s.cfg.Branch != "" {
		opts.Branch = gh.String(s.cfg.Branch)
	}
	if s.cfg.CommitterName != "" || s.cfg.CommitterEmail != "" {
		opts.Committer = &gh.CommitAuthor{Name: gh.String(s.cfg.CommitterName), Email: gh.String(s.cfg.CommitterEmail)}
	}

	var (
		res  *gh.RepositoryContentResponse
		resp *gh.Response
		err  error
	)
	if expected.IsZero() {
		res, resp, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	} else {
		opts.SHA = gh.String(string(expected))
		res, resp, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Path, opts)
	}

	if err != nil {
		status := statusOf(resp, err)
		switch {
		case expected.IsZero() && (status == http.StatusUnprocessableEntity || status == http.StatusConflict):
			return persistence.NoVersion, persistence.AlreadyExists(s.cfg.Path)
		case !expected.IsZero() && (status == http.StatusConflict || status == http.StatusNotFound):
			return persistence.NoVersion, &persistence.ConflictError{Path: s.cfg.Path, Expected: expected}
		}
		return persistence.NoVersion, s.classify("write", resp, err)
	}

	sha := res.GetContent().GetSHA()
	if sha == "" {
		return persistence.NoVersion, fmt.Errorf("github: write %s: response carries no content sha", s.cfg.Path)
	}
	return persistence.Version(sha), nil
}

func (s *Store) commitMessage() string {
	return "Update Kontrollen/Planung am " + s.cfg.Now().In(s.cfg.Location).Format("2006-01-02")
}

// classify marks failures a caller may retry as transient. Anything else
// (bad request, unexpected response) is returned wrapped but unclassified.
func (s *Store) classify(op string, resp *gh.Response, err error) error {
	var (
		rateErr  *gh.RateLimitError
		abuseErr *gh.AbuseRateLimitError
	)
	switch {
	case errors.As(err, &rateErr), errors.As(err, &abuseErr):
		return persistence.Transient("github "+op, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return persistence.Transient("github "+op, err)
	}

	status := statusOf(resp, err)
	switch {
	case status == 0:
		// no response: network failure
		return persistence.Transient("github "+op, err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden,
		status == http.StatusTooManyRequests, status >= 500:
		return persistence.Transient("github "+op, err)
	}
	return fmt.Errorf("github: %s %s: %w", op, s.cfg.Path, err)
}

func statusOf(resp *gh.Response, err error) int {
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return errResp.Response.StatusCode
	}
	return 0
}
