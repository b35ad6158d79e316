package gitlab

import (
	"errors"
	"strconv"
	"strings"

	"github.com/spec-kit/delivery-insights/internal/domain"
)

// MapCommit translates a wire commit to the canonical shape. Line stats are
// zero when only a summary record is available.
func MapCommit(projectID string, commit Commit) (*domain.Commit, error) {
	if commit.ID == "" {
		return nil, errors.New("commit without sha")
	}
	out := &domain.Commit{
		SHA:         commit.ID,
		ProjectID:   projectID,
		Message:     commit.Message,
		AuthorName:  commit.AuthorName,
		AuthorEmail: commit.AuthorEmail,
		CommittedAt: commit.CommittedDate,
	}
	if commit.Stats != nil {
		out.Additions = commit.Stats.Additions
		out.Deletions = commit.Stats.Deletions
	}
	return out, nil
}

// MapMergeRequest translates a wire merge request to the canonical shape.
func MapMergeRequest(projectID string, mr MergeRequest) (*domain.MergeRequest, error) {
	if mr.IID == 0 {
		return nil, errors.New("merge request without iid")
	}
	out := &domain.MergeRequest{
		ExternalID:        strconv.Itoa(mr.IID),
		ProjectID:         projectID,
		Title:             mr.Title,
		Status:            mapState(mr.State),
		SourceBranch:      mr.SourceBranch,
		TargetBranch:      mr.TargetBranch,
		CommentsCount:     mr.UserNotesCount,
		ExternalCreatedAt: mr.CreatedAt,
		MergedAt:          mr.MergedAt,
		ClosedAt:          mr.ClosedAt,
	}
	if mr.Author != nil {
		out.AuthorEmail = mr.Author.PublicEmail
	}
	return out, nil
}

func mapState(state string) domain.MergeRequestStatus {
	switch strings.ToLower(state) {
	case "merged":
		return domain.MergeRequestStatusMerged
	case "closed":
		return domain.MergeRequestStatusClosed
	case "locked":
		return domain.MergeRequestStatusLocked
	default:
		return domain.MergeRequestStatusOpen
	}
}
