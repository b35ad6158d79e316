package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/delivery-insights/internal/config"
	"github.com/spec-kit/delivery-insights/internal/domain"
	"github.com/spec-kit/delivery-insights/internal/integration/gitlab"
)

type fakeGitLabClient struct {
	commits    map[string][]gitlab.Commit
	details    map[string]*gitlab.Commit
	merged     map[string][]gitlab.MergeRequest
	open       map[string][]gitlab.MergeRequest
	commitsErr error
	detailErr  error
}

func (f *fakeGitLabClient) GetCommits(_ context.Context, projectID string, _ time.Time) ([]gitlab.Commit, error) {
	if f.commitsErr != nil {
		return nil, f.commitsErr
	}
	return f.commits[projectID], nil
}

func (f *fakeGitLabClient) GetCommitDetail(_ context.Context, _, sha string) (*gitlab.Commit, error) {
	if f.detailErr != nil {
		return nil, f.detailErr
	}
	return f.details[sha], nil
}

func (f *fakeGitLabClient) GetMergedMergeRequests(_ context.Context, projectID string, _ time.Time) ([]gitlab.MergeRequest, error) {
	return f.merged[projectID], nil
}

func (f *fakeGitLabClient) GetOpenMergeRequests(_ context.Context, projectID string) ([]gitlab.MergeRequest, error) {
	return f.open[projectID], nil
}

type memCommitRepo struct {
	bySHA map[string]*domain.Commit
}

func newMemCommitRepo() *memCommitRepo {
	return &memCommitRepo{bySHA: map[string]*domain.Commit{}}
}

func (m *memCommitRepo) Create(_ context.Context, commit *domain.Commit) error {
	copied := *commit
	m.bySHA[commit.SHA] = &copied
	return nil
}

func (m *memCommitRepo) ExistsBySHA(_ context.Context, sha string) (bool, error) {
	_, ok := m.bySHA[sha]
	return ok, nil
}

func (m *memCommitRepo) ListByDeveloperSince(_ context.Context, _ string, _ time.Time) ([]domain.Commit, error) {
	return nil, nil
}

type memMergeRequestRepo struct {
	byKey   map[string]*domain.MergeRequest
	creates int
	updates int
}

func newMemMergeRequestRepo() *memMergeRequestRepo {
	return &memMergeRequestRepo{byKey: map[string]*domain.MergeRequest{}}
}

func (m *memMergeRequestRepo) key(externalID, projectID string) string {
	return projectID + "/" + externalID
}

func (m *memMergeRequestRepo) Create(_ context.Context, mr *domain.MergeRequest) error {
	m.creates++
	copied := *mr
	m.byKey[m.key(mr.ExternalID, mr.ProjectID)] = &copied
	return nil
}

func (m *memMergeRequestRepo) Update(_ context.Context, mr *domain.MergeRequest) error {
	m.updates++
	copied := *mr
	m.byKey[m.key(mr.ExternalID, mr.ProjectID)] = &copied
	return nil
}

func (m *memMergeRequestRepo) GetByExternalID(_ context.Context, externalID, projectID string) (*domain.MergeRequest, error) {
	mr, ok := m.byKey[m.key(externalID, projectID)]
	if !ok {
		return nil, nil
	}
	copied := *mr
	return &copied, nil
}

func (m *memMergeRequestRepo) ListMergedInRange(_ context.Context, _ domain.DateRange) ([]domain.MergeRequest, error) {
	return nil, nil
}

func newTestGitLabCollector(client *fakeGitLabClient, commits *memCommitRepo, mergeRequests *memMergeRequestRepo, developers *memDeveloperRepo) *GitLabCollector {
	if developers == nil {
		developers = &memDeveloperRepo{}
	}
	cfg := config.GitLabConfig{ProjectIDs: []string{"42"}}
	return NewGitLabCollector(cfg, GitLabDependencies{
		Client:           client,
		CommitRepo:       commits,
		MergeRequestRepo: mergeRequests,
		DeveloperRepo:    developers,
	}, zap.NewNop())
}

func TestCollectCommitsSkipsKnownSHAs(t *testing.T) {
	client := &fakeGitLabClient{
		commits: map[string][]gitlab.Commit{"42": {
			{ID: "abc", Message: "first", AuthorEmail: "a@example.com"},
			{ID: "def", Message: "second", AuthorEmail: "b@example.com"},
		}},
	}
	commits := newMemCommitRepo()
	collector := newTestGitLabCollector(client, commits, newMemMergeRequestRepo(), nil)

	result, err := collector.CollectCommits(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)

	// Same poll again inserts nothing.
	result, err = collector.CollectCommits(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Count)
	assert.Len(t, commits.bySHA, 2)
}

func TestCollectCommitsUsesDetailStats(t *testing.T) {
	client := &fakeGitLabClient{
		commits: map[string][]gitlab.Commit{"42": {{ID: "abc", Message: "first"}}},
		details: map[string]*gitlab.Commit{"abc": {
			ID:      "abc",
			Message: "first",
			Stats:   &gitlab.CommitStats{Additions: 10, Deletions: 4},
		}},
	}
	commits := newMemCommitRepo()
	collector := newTestGitLabCollector(client, commits, newMemMergeRequestRepo(), nil)

	_, err := collector.CollectCommits(context.Background(), time.Now())
	require.NoError(t, err)
	stored := commits.bySHA["abc"]
	assert.Equal(t, 10, stored.Additions)
	assert.Equal(t, 4, stored.Deletions)
}

func TestCollectCommitsFallsBackToSummaryOnDetailFailure(t *testing.T) {
	client := &fakeGitLabClient{
		commits:   map[string][]gitlab.Commit{"42": {{ID: "abc", Message: "first"}}},
		detailErr: errors.New("rate limited"),
	}
	commits := newMemCommitRepo()
	collector := newTestGitLabCollector(client, commits, newMemMergeRequestRepo(), nil)

	result, err := collector.CollectCommits(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	stored := commits.bySHA["abc"]
	assert.Equal(t, 0, stored.Additions)
	assert.Equal(t, 0, stored.Deletions)
}

func TestCollectCommitsProjectFailureDoesNotAbort(t *testing.T) {
	client := &fakeGitLabClient{commitsErr: errors.New("unreachable")}
	collector := newTestGitLabCollector(client, newMemCommitRepo(), newMemMergeRequestRepo(), nil)
	collector.cfg.ProjectIDs = []string{"42", "43"}

	result, err := collector.CollectCommits(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.ErrorCount)
	assert.Equal(t, 0, result.Count)
}

func TestCollectMergeRequestsUpsertsByNaturalKey(t *testing.T) {
	mergedAt := time.Date(2026, 4, 10, 15, 0, 0, 0, time.UTC)
	client := &fakeGitLabClient{
		merged: map[string][]gitlab.MergeRequest{"42": {
			{IID: 7, Title: "fix bug", State: "merged", MergedAt: &mergedAt},
		}},
		open: map[string][]gitlab.MergeRequest{"42": {
			{IID: 8, Title: "new feature", State: "opened"},
		}},
	}
	mergeRequests := newMemMergeRequestRepo()
	collector := newTestGitLabCollector(client, newMemCommitRepo(), mergeRequests, nil)

	result, err := collector.CollectMergeRequests(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, mergeRequests.creates)

	// Re-polling must update in place, not duplicate.
	result, err = collector.CollectMergeRequests(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, 2, mergeRequests.creates)
	assert.Equal(t, 2, mergeRequests.updates)
	assert.Len(t, mergeRequests.byKey, 2)

	stored := mergeRequests.byKey["42/7"]
	assert.Equal(t, domain.MergeRequestStatusMerged, stored.Status)
	require.NotNil(t, stored.MergedAt)
	assert.Equal(t, mergedAt, *stored.MergedAt)
}

func TestCollectMergeRequestsSameIDInBothLists(t *testing.T) {
	// A merge request merged moments ago can appear in both the merged and
	// the open result pages of one poll.
	client := &fakeGitLabClient{
		merged: map[string][]gitlab.MergeRequest{"42": {{IID: 9, Title: "hotfix", State: "merged"}}},
		open:   map[string][]gitlab.MergeRequest{"42": {{IID: 9, Title: "hotfix", State: "opened"}}},
	}
	mergeRequests := newMemMergeRequestRepo()
	collector := newTestGitLabCollector(client, newMemCommitRepo(), mergeRequests, nil)

	_, err := collector.CollectMergeRequests(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 1, mergeRequests.creates)
	assert.Equal(t, 1, mergeRequests.updates)
	assert.Len(t, mergeRequests.byKey, 1)
}

func TestCollectMergeRequestsLinksAuthor(t *testing.T) {
	client := &fakeGitLabClient{
		open: map[string][]gitlab.MergeRequest{"42": {
			{IID: 10, Title: "docs", State: "opened", Author: &gitlab.Author{PublicEmail: "dev@example.com"}},
		}},
	}
	mergeRequests := newMemMergeRequestRepo()
	developers := &memDeveloperRepo{byEmail: map[string]*domain.Developer{
		"dev@example.com": {ID: "dev-1"},
	}}
	collector := newTestGitLabCollector(client, newMemCommitRepo(), mergeRequests, developers)

	_, err := collector.CollectMergeRequests(context.Background(), time.Now())
	require.NoError(t, err)
	stored := mergeRequests.byKey["42/10"]
	require.NotNil(t, stored.DeveloperID)
	assert.Equal(t, "dev-1", *stored.DeveloperID)
}
