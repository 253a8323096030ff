package models

import "strings"

// PushEvent represents the subset of the GitHub push webhook payload
// that drives synchronization
type PushEvent struct {
	Ref        string           `json:"ref"`
	Before     string           `json:"before"`
	After      string           `json:"after"`
	Compare    string           `json:"compare"`
	Commits    []PushCommit     `json:"commits"`
	Repository GitHubRepository `json:"repository"`
	Pusher     GitHubPusher     `json:"pusher"`
}

// PushCommit represents a commit in the GitHub webhook.
// Added, Modified and Removed hold repository-relative paths.
type PushCommit struct {
	ID        string   `json:"id"`
	Message   string   `json:"message"`
	Timestamp string   `json:"timestamp"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
}

// GitHubRepository represents a repository in the GitHub webhook
type GitHubRepository struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
}

// GitHubPusher represents the pusher in the GitHub webhook
type GitHubPusher struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GetBranch returns the branch name without refs/heads/ prefix
func (p PushEvent) GetBranch() string {
	return strings.TrimPrefix(p.Ref, "refs/heads/")
}

// GetCommitCount returns the number of commits
func (p PushEvent) GetCommitCount() int {
	return len(p.Commits)
}

// ContentEntry is one item of the GitHub repository contents listing
type ContentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}
