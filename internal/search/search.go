package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultProject  ResultType = "project"
	ResultNode     ResultType = "node"
	ResultGlossary ResultType = "glossary"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type      ResultType `json:"type"`
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Snippet   string     `json:"snippet"`
	ProjectID string     `json:"projectId"`
	NodeType  string     `json:"nodeType,omitempty"`
	Path      string     `json:"path,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text            string
	FilterType      ResultType // empty = all types
	FilterProjectID string
	Limit           int
	Offset          int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexProject(p ProjectRecord) error
	IndexNode(n NodeRecord) error
	IndexGlossary(g GlossaryRecord) error
	DeleteProject(id string) error
	DeleteNode(id string) error
	DeleteGlossary(id string) error
}

// ProjectRecord is the data we index for a project.
type ProjectRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NodeRecord is the data we index for a project tree node.
type NodeRecord struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId"`
	NodeType    string `json:"nodeType"`
	Path        string `json:"path"`
}

// GlossaryRecord is the data we index for a glossary entry.
type GlossaryRecord struct {
	ID         string `json:"id"`
	Term       string `json:"term"`
	Definition string `json:"definition"`
	ProjectID  string `json:"projectId"`
}
