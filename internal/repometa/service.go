package repometa

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"

	"github.com/goliatone/go-jszoo/internal/catalog"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// Row keys written by Enrich.
const (
	KeyStars        = "github_stars"
	KeyForks        = "github_forks"
	KeyContributors = "github_contributors"
)

var githubRepoPattern = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(\.git)?$`)

// ParseGitHubURL extracts owner and repository from a GitHub URL.
func ParseGitHubURL(url string) (owner, repo string, ok bool) {
	m := githubRepoPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Service resolves repository statistics from the cache, falling back to
// the API when fetching is enabled.
type Service struct {
	client *Client
	cache  *FileCache
	logger interfaces.Logger
}

var _ interfaces.RepositoryStatsProvider = (*Service)(nil)

// NewService builds a service. A nil client makes it cache-only.
func NewService(client *Client, cache *FileCache, logger interfaces.Logger) *Service {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Service{client: client, cache: cache, logger: logger}
}

// Stats returns the statistics of the entry id hosted at repoURL. ok is
// false for non-GitHub URLs, uncached entries without a client, and failed
// requests, which are logged rather than returned.
func (s *Service) Stats(ctx context.Context, id, repoURL string) (interfaces.RepositoryStats, bool, error) {
	return s.stats(ctx, id, repoURL, true)
}

func (s *Service) stats(ctx context.Context, id, repoURL string, fetch bool) (interfaces.RepositoryStats, bool, error) {
	var stats interfaces.RepositoryStats
	client := s.client
	if !fetch {
		client = nil
	}
	owner, repo, ok := ParseGitHubURL(repoURL)
	if !ok {
		return stats, false, nil
	}
	logger := s.logger.WithContext(ctx)

	doc, cached, err := s.cache.Repository(id)
	if err != nil {
		return stats, false, err
	}
	if !cached {
		if client == nil {
			return stats, false, nil
		}
		doc, err = client.Repository(ctx, owner, repo)
		if err != nil {
			if ctx.Err() != nil {
				return stats, false, ctx.Err()
			}
			logger.Warn("repometa.repository.fetch_failed", "id", id, "repository", owner+"/"+repo, "error", err)
			return stats, false, nil
		}
		if err := s.cache.StoreRepository(id, doc); err != nil {
			return stats, false, err
		}
		logger.Debug("repometa.repository.fetched", "id", id, "repository", owner+"/"+repo)
	}
	stats.Stars = intField(doc, "stargazers_count")
	stats.Forks = intField(doc, "forks_count")

	count, cached, err := s.cache.Contributors(id)
	if err != nil {
		return stats, true, err
	}
	switch {
	case cached:
		stats.Contributors, stats.HasContributors = count, true
	case client != nil:
		count, err := client.Contributors(ctx, owner, repo)
		if err != nil {
			if ctx.Err() != nil {
				return stats, true, ctx.Err()
			}
			var httpErr *HTTPError
			if !errors.As(err, &httpErr) {
				logger.Warn("repometa.contributors.fetch_failed", "id", id, "error", err)
			}
			return stats, true, nil
		}
		if err := s.cache.StoreContributors(id, count); err != nil {
			return stats, true, err
		}
		stats.Contributors, stats.HasContributors = count, true
	}
	return stats, true, nil
}

// Enrich adds github_stars, github_forks and github_contributors to row,
// reading the repository from the github, repository or sources field.
// Cached statistics are always used; the API is only called when fetch is set.
func (s *Service) Enrich(ctx context.Context, row catalog.Row, fetch bool) error {
	repoURL := row.Text("github")
	if _, present := row["github"]; !present {
		repoURL = row.Text("repository")
		if _, present := row["repository"]; !present {
			repoURL = row.Text("sources")
		}
	}
	if repoURL == "" {
		return nil
	}

	stats, ok, err := s.stats(ctx, row.ID(), repoURL, fetch)
	if err != nil || !ok {
		return err
	}
	row[KeyStars] = stats.Stars
	row[KeyForks] = stats.Forks
	if stats.HasContributors {
		row[KeyContributors] = stats.Contributors
	}
	return nil
}

func intField(doc map[string]any, key string) int64 {
	switch v := doc[key].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, _ := v.Float64()
			return int64(f)
		}
		return n
	case float64:
		return int64(v)
	default:
		return 0
	}
}
