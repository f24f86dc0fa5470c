package store

import "time"

// Project is one authoring project. Creator and editor identities come from
// the external user directory; only ids and display names are persisted.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	CreatedAt   time.Time `json:"createdAt"`
	EditorID    string    `json:"editorId"`
	EditorName  string    `json:"editorName"`
	EditedAt    time.Time `json:"editedAt"`
}

// ProjectNode is one entry in a project's application/page/function tree.
// Function nodes carry the id of their design document.
type ProjectNode struct {
	ID          string    `json:"id"`
	ProjectID   int64     `json:"projectId"`
	ParentID    *string   `json:"parentId"`
	NodeType    string    `json:"nodeType"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Path        string    `json:"path"`
	Sort        int       `json:"sort"`
	Status      string    `json:"status"`
	DocumentID  *int64    `json:"documentId"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	CreatedAt   time.Time `json:"createdAt"`
	EditorID    string    `json:"editorId"`
	EditorName  string    `json:"editorName"`
	EditedAt    time.Time `json:"editedAt"`
}

// NodeTree is a ProjectNode with its children resolved.
type NodeTree struct {
	ProjectNode
	Children []NodeTree `json:"children"`
}

// NodeType constrains which parent types a node type accepts. ParentAllow is
// empty for root-level types, otherwise a comma-separated list of codes.
type NodeType struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	ParentAllow string `json:"parentAllow"`
}

// GlossaryEntry defines one term in a project's glossary.
type GlossaryEntry struct {
	ID          int64     `json:"id"`
	ProjectID   int64     `json:"projectId"`
	Term        string    `json:"term"`
	Definition  string    `json:"definition"`
	CreatorID   string    `json:"creatorId"`
	CreatorName string    `json:"creatorName"`
	CreatedAt   time.Time `json:"createdAt"`
	EditorID    string    `json:"editorId"`
	EditorName  string    `json:"editorName"`
	EditedAt    time.Time `json:"editedAt"`
}

// FunctionDocument is the design document attached to a function node. Its
// id keys the document content store.
type FunctionDocument struct {
	ID             int64     `json:"id"`
	FunctionNodeID string    `json:"functionNodeId"`
	CreatorID      string    `json:"creatorId"`
	CreatorName    string    `json:"creatorName"`
	CreatedAt      time.Time `json:"createdAt"`
	EditorID       string    `json:"editorId"`
	EditorName     string    `json:"editorName"`
	EditedAt       time.Time `json:"editedAt"`
}
