package interfaces

import "context"

// RepositoryStats holds the popularity counters fetched for a source repository.
type RepositoryStats struct {
	Stars        int64
	Forks        int64
	Contributors int64
	// HasContributors is false when the contributor count could not be resolved.
	HasContributors bool
}

// RepositoryStatsProvider resolves stats for a catalog entry. Implementations
// report ok=false when nothing is known about the entry.
type RepositoryStatsProvider interface {
	Stats(ctx context.Context, id, repoURL string) (RepositoryStats, bool, error)
}
