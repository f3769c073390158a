package api

// SearchResult is one organic search hit reduced to the fields the
// pipeline consumes. Missing provider fields are represented as "".
type SearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// GenerateRequest is a client request to produce a post for a topic.
type GenerateRequest struct {
	Topic  string `json:"topic"`
	Stream bool   `json:"stream,omitempty"`
}

// PostStatus represents the outcome of a post run.
type PostStatus string

const (
	PostStatusInProgress PostStatus = "in_progress"
	PostStatusCompleted  PostStatus = "completed"
	PostStatusFailed     PostStatus = "failed"
	PostStatusCancelled  PostStatus = "cancelled"

	// PostStatusRejected marks a run that never started because the topic was blank.
	PostStatusRejected PostStatus = "rejected"
)

// Post is the client-facing result of one run. Output always holds the text
// shown to the user: the generated post, the blank-topic prompt, or an
// "Error: ..." line. Error is set only for failed and cancelled runs.
type Post struct {
	ID        string     `json:"id"`
	Object    string     `json:"object"`
	Status    PostStatus `json:"status"`
	Topic     string     `json:"topic"`
	Output    string     `json:"output"`
	Error     *APIError  `json:"error,omitempty"`
	CreatedAt int64      `json:"created_at"`
}

// Run is the metadata record of one finished pipeline run. It holds no
// generated text: summaries and posts are never persisted.
type Run struct {
	ID           string    `json:"id"`
	Object       string    `json:"object"`
	TenantID     string    `json:"-"`
	Topic        string    `json:"topic"`
	State        State     `json:"state"`
	ErrorType    ErrorType `json:"error_type,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	ResultCount  int       `json:"result_count"`
	CreatedAt    int64     `json:"created_at"`
	DurationMS   int64     `json:"duration_ms"`
}
