package gitlab

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

func TestMapCommit(t *testing.T) {
	committed := time.Date(2026, 4, 3, 11, 0, 0, 0, time.UTC)
	commit, err := MapCommit("42", Commit{
		ID:            "abc123",
		Message:       "fix importer retries",
		AuthorName:    "Dev One",
		AuthorEmail:   "dev@example.com",
		CommittedDate: committed,
		Stats:         &CommitStats{Additions: 20, Deletions: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "abc123", commit.SHA)
	assert.Equal(t, "42", commit.ProjectID)
	assert.Equal(t, 20, commit.Additions)
	assert.Equal(t, 3, commit.Deletions)
	assert.Equal(t, committed, commit.CommittedAt)
}

func TestMapCommitWithoutStats(t *testing.T) {
	commit, err := MapCommit("42", Commit{ID: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, 0, commit.Additions)
	assert.Equal(t, 0, commit.Deletions)
}

func TestMapCommitWithoutSHA(t *testing.T) {
	_, err := MapCommit("42", Commit{})
	assert.Error(t, err)
}

func TestMapMergeRequest(t *testing.T) {
	mergedAt := time.Date(2026, 4, 5, 9, 0, 0, 0, time.UTC)
	mr, err := MapMergeRequest("42", MergeRequest{
		IID:            17,
		Title:          "Add retry backoff",
		State:          "merged",
		Author:         &Author{Username: "dev1", PublicEmail: "dev@example.com"},
		SourceBranch:   "feature/retries",
		TargetBranch:   "main",
		UserNotesCount: 4,
		CreatedAt:      mergedAt.Add(-48 * time.Hour),
		MergedAt:       &mergedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, "17", mr.ExternalID)
	assert.Equal(t, domain.MergeRequestStatusMerged, mr.Status)
	assert.Equal(t, "dev@example.com", mr.AuthorEmail)
	assert.Equal(t, 4, mr.CommentsCount)
	require.NotNil(t, mr.MergedAt)
	assert.Equal(t, mergedAt, *mr.MergedAt)
}

func TestMapMergeRequestWithoutIID(t *testing.T) {
	_, err := MapMergeRequest("42", MergeRequest{})
	assert.Error(t, err)
}

func TestMapState(t *testing.T) {
	assert.Equal(t, domain.MergeRequestStatusMerged, mapState("merged"))
	assert.Equal(t, domain.MergeRequestStatusClosed, mapState("closed"))
	assert.Equal(t, domain.MergeRequestStatusLocked, mapState("locked"))
	assert.Equal(t, domain.MergeRequestStatusOpen, mapState("opened"))
	assert.Equal(t, domain.MergeRequestStatusOpen, mapState("anything else"))
}
