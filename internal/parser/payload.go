package parser

// Typed views of the GitHub webhook payloads the gateway understands.
// Every field is optional on the wire; missing values decode to zero values
// or nil pointers and are skipped explicitly rather than guessed at.

type repository struct {
	FullName string `json:"full_name"`
}

type headRef struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

type pullRequest struct {
	Number    *int64  `json:"number"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	Merged    bool    `json:"merged"`
	Head      headRef `json:"head"`
	HTMLURL   string  `json:"html_url"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type headCommit struct {
	Message string `json:"message"`
}

type workflowRun struct {
	ID           *int64      `json:"id"`
	Name         string      `json:"name"`
	DisplayTitle string      `json:"display_title"`
	HeadBranch   string      `json:"head_branch"`
	HeadSHA      string      `json:"head_sha"`
	Conclusion   string      `json:"conclusion"`
	HeadCommit   *headCommit `json:"head_commit"`
	RunStartedAt string      `json:"run_started_at"`
	UpdatedAt    string      `json:"updated_at"`
}

type release struct {
	ID              *int64 `json:"id"`
	Name            string `json:"name"`
	TagName         string `json:"tag_name"`
	Body            string `json:"body"`
	TargetCommitish string `json:"target_commitish"`
	HTMLURL         string `json:"html_url"`
	CreatedAt       string `json:"created_at"`
	PublishedAt     string `json:"published_at"`
}

// envelope is the superset of top-level fields across the supported events.
type envelope struct {
	Action      string       `json:"action"`
	Number      *int64       `json:"number"`
	Repository  *repository  `json:"repository"`
	PullRequest *pullRequest `json:"pull_request"`
	WorkflowRun *workflowRun `json:"workflow_run"`
	Release     *release     `json:"release"`
}
