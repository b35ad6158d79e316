package gitlab

import "time"

// Commit is the wire shape of a commit summary or detail. Stats is only
// populated by the single-commit detail endpoint.
type Commit struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	Message       string       `json:"message"`
	AuthorName    string       `json:"author_name"`
	AuthorEmail   string       `json:"author_email"`
	CommittedDate time.Time    `json:"committed_date"`
	Stats         *CommitStats `json:"stats"`
}

// CommitStats carries line-change counts.
type CommitStats struct {
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
	Total     int `json:"total"`
}

// MergeRequest is the wire shape of a merge request.
type MergeRequest struct {
	IID            int        `json:"iid"`
	Title          string     `json:"title"`
	State          string     `json:"state"`
	Author         *Author    `json:"author"`
	SourceBranch   string     `json:"source_branch"`
	TargetBranch   string     `json:"target_branch"`
	UserNotesCount int        `json:"user_notes_count"`
	CreatedAt      time.Time  `json:"created_at"`
	MergedAt       *time.Time `json:"merged_at"`
	ClosedAt       *time.Time `json:"closed_at"`
}

// Author is a GitLab account reference. GitLab does not expose the author
// email on merge requests, so linkage falls back to the public user email
// when present.
type Author struct {
	Username    string `json:"username"`
	Name        string `json:"name"`
	PublicEmail string `json:"public_email"`
}
