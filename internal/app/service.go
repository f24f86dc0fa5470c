package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"studio/api/internal/config"
	"studio/api/internal/doctree"
	"studio/api/internal/export"
	"studio/api/internal/hydra"
	"studio/api/internal/search"
	"studio/api/internal/session"
	"studio/api/internal/store"
	"studio/api/internal/userdir"
)

// Session identifies the caller of a request, resolved from an access token.
type Session struct {
	UserID      string
	UserName    string
	VisitorType string
}

// ErrUnauthorized marks tokens the OAuth2 provider reports as inactive.
var ErrUnauthorized = errors.New("unauthorized")

const (
	maxProjectNameLen = 128
	maxDescriptionLen = 400
	maxTermLen        = 255

	nodeStatusActive = "active"
)

type dataStore interface {
	Ping(ctx context.Context) error

	InsertProject(context.Context, store.Project) (store.Project, error)
	ListProjects(context.Context) ([]store.Project, error)
	GetProject(context.Context, int64) (store.Project, error)
	UpdateProject(ctx context.Context, projectID int64, name, description, editorID, editorName string) error
	DeleteProject(context.Context, int64) error

	InsertNode(context.Context, store.ProjectNode) error
	ListProjectNodes(context.Context, int64) ([]store.ProjectNode, error)
	GetNode(context.Context, string) (store.ProjectNode, error)
	UpdateNode(ctx context.Context, nodeID, name, description string, sort int, editorID, editorName string) error
	DeleteNodeSubtree(ctx context.Context, projectID int64, path string) ([]int64, error)
	GetNodeType(context.Context, string) (store.NodeType, error)

	InsertFunctionDocument(ctx context.Context, functionNodeID, creatorID, creatorName string) (int64, error)
	GetFunctionDocument(context.Context, int64) (store.FunctionDocument, error)
	TouchFunctionDocument(ctx context.Context, documentID int64, editorID, editorName string) error

	InsertGlossaryEntry(context.Context, store.GlossaryEntry) (store.GlossaryEntry, error)
	ListGlossary(context.Context, int64) ([]store.GlossaryEntry, error)
	GetGlossaryEntry(context.Context, int64) (store.GlossaryEntry, error)
	UpdateGlossaryEntry(ctx context.Context, entryID int64, term, definition, editorID, editorName string) error
	DeleteGlossaryEntry(context.Context, int64) error

	GetContent(context.Context, int64) (any, error)
	SetContent(context.Context, int64, any) error
	DeleteContent(context.Context, int64) error
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexProject(p search.ProjectRecord)
	IndexNode(n search.NodeRecord)
	IndexGlossary(g search.GlossaryRecord)
	DeleteProject(id string)
	DeleteNode(id string)
	DeleteGlossary(id string)
}

type introspector interface {
	Introspect(ctx context.Context, token string) (hydra.Introspection, error)
}

type userDirectory interface {
	UserName(ctx context.Context, id string) (string, error)
}

type identityCache interface {
	Get(ctx context.Context, token string) (session.Identity, bool, error)
	Put(ctx context.Context, token string, identity session.Identity) error
	Ping(ctx context.Context) error
}

type exporter interface {
	Export(ctx context.Context, req export.Request) (*export.Result, error)
}

type Service struct {
	cfg        config.Config
	store      dataStore
	search     searchService
	introspect introspector
	users      userDirectory
	cache      identityCache
	export     exporter

	// Serializes read-modify-write cycles on a document's content within
	// this process.
	docMu    sync.Mutex
	docLocks map[int64]*sync.Mutex
}

func New(cfg config.Config, dataStore *store.PostgresStore, searchSvc *search.Service, introspect *hydra.Client, users *userdir.Client, cache *session.Cache) *Service {
	s := &Service{
		cfg:        cfg,
		store:      dataStore,
		introspect: introspect,
		users:      users,
		docLocks:   make(map[int64]*sync.Mutex),
	}
	if searchSvc != nil {
		s.search = searchSvc
	}
	if cache != nil {
		s.cache = cache
	}
	s.export = export.NewService(&exportStore{store: s.store})
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingCache checks the identity cache connection. A deployment without Redis
// configured reports healthy.
func (s *Service) PingCache(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Ping(ctx)
}

func (s *Service) lockDocument(documentID int64) *sync.Mutex {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	mu, ok := s.docLocks[documentID]
	if !ok {
		mu = &sync.Mutex{}
		s.docLocks[documentID] = mu
	}
	return mu
}

// SessionFromToken resolves an access token to a session, using the Redis
// cache when available and falling back to live introspection.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	if s.cache != nil {
		if identity, ok, err := s.cache.Get(ctx, token); err == nil && ok {
			return Session{UserID: identity.UserID, UserName: identity.UserName, VisitorType: identity.VisitorType}, nil
		}
	}

	intro, err := s.introspect.Introspect(ctx, token)
	if err != nil {
		return Session{}, fmt.Errorf("introspect token: %w", err)
	}
	if !intro.Active || strings.TrimSpace(intro.Subject) == "" {
		return Session{}, ErrUnauthorized
	}

	name, err := s.users.UserName(ctx, intro.Subject)
	if err != nil {
		// Directory outages should not lock everyone out.
		name = intro.Subject
	}

	sess := Session{UserID: intro.Subject, UserName: name, VisitorType: intro.VisitorType}
	if s.cache != nil {
		_ = s.cache.Put(ctx, token, session.Identity{
			UserID:      sess.UserID,
			UserName:    sess.UserName,
			VisitorType: sess.VisitorType,
			ResolvedAt:  time.Now(),
		})
	}
	return sess, nil
}


func (s *Service) ListProjects(ctx context.Context) ([]store.Project, error) {
	return s.store.ListProjects(ctx)
}

func (s *Service) CreateProject(ctx context.Context, name, description string, session Session) (store.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if len(name) > maxProjectNameLen {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("name must be at most %d characters", maxProjectNameLen), nil)
	}
	if len(description) > maxDescriptionLen {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen), nil)
	}

	project, err := s.store.InsertProject(ctx, store.Project{
		Name:        name,
		Description: description,
		CreatorID:   session.UserID,
		CreatorName: session.UserName,
	})
	if errors.Is(err, store.ErrDuplicateName) {
		return store.Project{}, domainError(http.StatusConflict, "DUPLICATE_NAME", "A project with this name already exists", nil)
	}
	if err != nil {
		return store.Project{}, err
	}

	if s.search != nil {
		s.search.IndexProject(search.ProjectRecord{
			ID:          fmt.Sprintf("%d", project.ID),
			Name:        project.Name,
			Description: project.Description,
		})
	}
	return project, nil
}

func (s *Service) GetProject(ctx context.Context, projectID int64) (store.Project, error) {
	return s.store.GetProject(ctx, projectID)
}

func (s *Service) UpdateProject(ctx context.Context, projectID int64, name, description string, session Session) (store.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if len(name) > maxProjectNameLen {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("name must be at most %d characters", maxProjectNameLen), nil)
	}
	if len(description) > maxDescriptionLen {
		return store.Project{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen), nil)
	}

	err := s.store.UpdateProject(ctx, projectID, name, description, session.UserID, session.UserName)
	if errors.Is(err, store.ErrDuplicateName) {
		return store.Project{}, domainError(http.StatusConflict, "DUPLICATE_NAME", "A project with this name already exists", nil)
	}
	if err != nil {
		return store.Project{}, err
	}

	if s.search != nil {
		s.search.IndexProject(search.ProjectRecord{
			ID:          fmt.Sprintf("%d", projectID),
			Name:        name,
			Description: description,
		})
	}
	return s.store.GetProject(ctx, projectID)
}

func (s *Service) DeleteProject(ctx context.Context, projectID int64) error {
	nodes, err := s.store.ListProjectNodes(ctx, projectID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, projectID); err != nil {
		return err
	}

	for _, node := range nodes {
		if node.DocumentID != nil {
			_ = s.store.DeleteContent(ctx, *node.DocumentID)
		}
		if s.search != nil {
			s.search.DeleteNode(node.ID)
		}
	}
	if s.search != nil {
		s.search.DeleteProject(fmt.Sprintf("%d", projectID))
	}
	return nil
}


func (s *Service) GetProjectTree(ctx context.Context, projectID int64) ([]store.NodeTree, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	nodes, err := s.store.ListProjectNodes(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return buildTree(nodes), nil
}

// buildTree assembles the flat node list into a forest. Nodes arrive sorted
// by sort then creation time, and children preserve that order.
func buildTree(nodes []store.ProjectNode) []store.NodeTree {
	children := make(map[string][]string, len(nodes))
	byID := make(map[string]store.ProjectNode, len(nodes))
	var rootIDs []string

	for _, node := range nodes {
		byID[node.ID] = node
		if node.ParentID == nil {
			rootIDs = append(rootIDs, node.ID)
		} else {
			children[*node.ParentID] = append(children[*node.ParentID], node.ID)
		}
	}

	var build func(id string) store.NodeTree
	build = func(id string) store.NodeTree {
		tree := store.NodeTree{ProjectNode: byID[id], Children: []store.NodeTree{}}
		for _, childID := range children[id] {
			tree.Children = append(tree.Children, build(childID))
		}
		return tree
	}

	forest := make([]store.NodeTree, 0, len(rootIDs))
	for _, id := range rootIDs {
		forest = append(forest, build(id))
	}
	return forest
}

type CreateNodeInput struct {
	ParentID    *string `json:"parentId"`
	NodeType    string  `json:"nodeType"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Sort        int     `json:"sort"`
}

func (s *Service) CreateNode(ctx context.Context, projectID int64, input CreateNodeInput, session Session) (store.ProjectNode, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if len(name) > maxProjectNameLen {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("name must be at most %d characters", maxProjectNameLen), nil)
	}
	if len(input.Description) > maxDescriptionLen {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen), nil)
	}

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return store.ProjectNode{}, err
	}

	nodeType, err := s.store.GetNodeType(ctx, input.NodeType)
	if err != nil {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown node type %q", input.NodeType), nil)
	}

	parentType := ""
	parentPath := ""
	if input.ParentID != nil {
		parent, err := s.store.GetNode(ctx, *input.ParentID)
		if err != nil {
			return store.ProjectNode{}, err
		}
		if parent.ProjectID != projectID {
			return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "parent belongs to a different project", nil)
		}
		parentType = parent.NodeType
		parentPath = parent.Path
	}

	if !nodeType.AllowsParent(parentType) {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "INVALID_PARENT",
			fmt.Sprintf("a %s node cannot be placed under %s", nodeType.Code, parentLabel(parentType)), nil)
	}

	node := store.ProjectNode{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		ParentID:    input.ParentID,
		NodeType:    nodeType.Code,
		Name:        name,
		Description: input.Description,
		Sort:        input.Sort,
		Status:      nodeStatusActive,
		CreatorID:   session.UserID,
		CreatorName: session.UserName,
	}
	node.Path = parentPath + "/node_" + node.ID

	if nodeType.Code == "function" {
		documentID, err := s.store.InsertFunctionDocument(ctx, node.ID, session.UserID, session.UserName)
		if err != nil {
			return store.ProjectNode{}, err
		}
		node.DocumentID = &documentID
	}

	if err := s.store.InsertNode(ctx, node); err != nil {
		return store.ProjectNode{}, err
	}

	if s.search != nil {
		s.search.IndexNode(search.NodeRecord{
			ID:          node.ID,
			Name:        node.Name,
			Description: node.Description,
			ProjectID:   fmt.Sprintf("%d", projectID),
			NodeType:    node.NodeType,
			Path:        node.Path,
		})
	}
	return s.store.GetNode(ctx, node.ID)
}

func parentLabel(parentType string) string {
	if parentType == "" {
		return "the tree root"
	}
	return "a " + parentType + " node"
}

func (s *Service) GetNode(ctx context.Context, nodeID string) (store.ProjectNode, error) {
	return s.store.GetNode(ctx, nodeID)
}

type UpdateNodeInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Sort        int    `json:"sort"`
}

func (s *Service) UpdateNode(ctx context.Context, nodeID string, input UpdateNodeInput, session Session) (store.ProjectNode, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if len(name) > maxProjectNameLen {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("name must be at most %d characters", maxProjectNameLen), nil)
	}
	if len(input.Description) > maxDescriptionLen {
		return store.ProjectNode{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("description must be at most %d characters", maxDescriptionLen), nil)
	}

	if err := s.store.UpdateNode(ctx, nodeID, name, input.Description, input.Sort, session.UserID, session.UserName); err != nil {
		return store.ProjectNode{}, err
	}

	node, err := s.store.GetNode(ctx, nodeID)
	if err != nil {
		return store.ProjectNode{}, err
	}
	if s.search != nil {
		s.search.IndexNode(search.NodeRecord{
			ID:          node.ID,
			Name:        node.Name,
			Description: node.Description,
			ProjectID:   fmt.Sprintf("%d", node.ProjectID),
			NodeType:    node.NodeType,
			Path:        node.Path,
		})
	}
	return node, nil
}

// DeleteNode removes a node together with its subtree, the attached function
// documents, and their content.
func (s *Service) DeleteNode(ctx context.Context, nodeID string) error {
	node, err := s.store.GetNode(ctx, nodeID)
	if err != nil {
		return err
	}

	documentIDs, err := s.store.DeleteNodeSubtree(ctx, node.ProjectID, node.Path)
	if err != nil {
		return err
	}
	for _, documentID := range documentIDs {
		_ = s.store.DeleteContent(ctx, documentID)
	}
	if s.search != nil {
		s.search.DeleteNode(nodeID)
	}
	return nil
}


func (s *Service) ListGlossary(ctx context.Context, projectID int64) ([]store.GlossaryEntry, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListGlossary(ctx, projectID)
}

func (s *Service) CreateGlossaryEntry(ctx context.Context, projectID int64, term, definition string, session Session) (store.GlossaryEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return store.GlossaryEntry{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "term is required", nil)
	}
	if len(term) > maxTermLen {
		return store.GlossaryEntry{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("term must be at most %d characters", maxTermLen), nil)
	}

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return store.GlossaryEntry{}, err
	}

	entry, err := s.store.InsertGlossaryEntry(ctx, store.GlossaryEntry{
		ProjectID:   projectID,
		Term:        term,
		Definition:  definition,
		CreatorID:   session.UserID,
		CreatorName: session.UserName,
	})
	if errors.Is(err, store.ErrDuplicateTerm) {
		return store.GlossaryEntry{}, domainError(http.StatusConflict, "DUPLICATE_TERM", "This term is already defined in the project", nil)
	}
	if err != nil {
		return store.GlossaryEntry{}, err
	}

	if s.search != nil {
		s.search.IndexGlossary(search.GlossaryRecord{
			ID:         fmt.Sprintf("%d", entry.ID),
			Term:       entry.Term,
			Definition: entry.Definition,
			ProjectID:  fmt.Sprintf("%d", projectID),
		})
	}
	return entry, nil
}

func (s *Service) UpdateGlossaryEntry(ctx context.Context, entryID int64, term, definition string, session Session) (store.GlossaryEntry, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return store.GlossaryEntry{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "term is required", nil)
	}
	if len(term) > maxTermLen {
		return store.GlossaryEntry{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("term must be at most %d characters", maxTermLen), nil)
	}

	err := s.store.UpdateGlossaryEntry(ctx, entryID, term, definition, session.UserID, session.UserName)
	if errors.Is(err, store.ErrDuplicateTerm) {
		return store.GlossaryEntry{}, domainError(http.StatusConflict, "DUPLICATE_TERM", "This term is already defined in the project", nil)
	}
	if err != nil {
		return store.GlossaryEntry{}, err
	}

	entry, err := s.store.GetGlossaryEntry(ctx, entryID)
	if err != nil {
		return store.GlossaryEntry{}, err
	}
	if s.search != nil {
		s.search.IndexGlossary(search.GlossaryRecord{
			ID:         fmt.Sprintf("%d", entry.ID),
			Term:       entry.Term,
			Definition: entry.Definition,
			ProjectID:  fmt.Sprintf("%d", entry.ProjectID),
		})
	}
	return entry, nil
}

func (s *Service) DeleteGlossaryEntry(ctx context.Context, entryID int64) error {
	if err := s.store.DeleteGlossaryEntry(ctx, entryID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeleteGlossary(fmt.Sprintf("%d", entryID))
	}
	return nil
}


// GetContent returns the stored body of a document. Documents that were
// never written read as an empty object.
func (s *Service) GetContent(ctx context.Context, documentID int64) (any, error) {
	if _, err := s.store.GetFunctionDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetContent(ctx, documentID)
}

// PutContent replaces the stored body of a document. The body must be a
// JSON object; it is normalized before storage so every container carries a
// content array.
func (s *Service) PutContent(ctx context.Context, documentID int64, content any, session Session) (any, error) {
	if _, err := s.store.GetFunctionDocument(ctx, documentID); err != nil {
		return nil, err
	}
	if _, ok := content.(map[string]any); !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_RESULT", "document content must be a JSON object", nil)
	}

	mu := s.lockDocument(documentID)
	mu.Lock()
	defer mu.Unlock()

	normalized := doctree.Normalize(content)
	if err := s.store.SetContent(ctx, documentID, normalized); err != nil {
		return nil, err
	}
	if err := s.store.TouchFunctionDocument(ctx, documentID, session.UserID, session.UserName); err != nil {
		log.Printf("touch document %d after content write: %v", documentID, err)
	}
	return normalized, nil
}

// PatchContent applies a JSON Patch to a document's content. The stored
// document is normalized before the patch runs, the whole operation list
// applies atomically, and the result must still be a JSON object.
func (s *Service) PatchContent(ctx context.Context, documentID int64, operations []byte, session Session) (any, error) {
	if _, err := s.store.GetFunctionDocument(ctx, documentID); err != nil {
		return nil, err
	}

	mu := s.lockDocument(documentID)
	mu.Lock()
	defer mu.Unlock()

	current, err := s.store.GetContent(ctx, documentID)
	if err != nil {
		return nil, err
	}

	patched, err := doctree.Apply(doctree.Normalize(current), operations)
	if err != nil {
		var patchErr *doctree.PatchError
		if errors.As(err, &patchErr) {
			details := map[string]any{"index": patchErr.Index}
			if patchErr.Op != "" {
				details["op"] = patchErr.Op
			}
			if patchErr.Path != "" {
				details["path"] = patchErr.Path
			}
			return nil, domainError(http.StatusUnprocessableEntity, "PATCH_FAILED", patchErr.Error(), details)
		}
		return nil, err
	}

	result, ok := patched.(map[string]any)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "INVALID_RESULT", "patch result must be a JSON object", nil)
	}

	if err := s.store.SetContent(ctx, documentID, result); err != nil {
		return nil, err
	}
	if err := s.store.TouchFunctionDocument(ctx, documentID, session.UserID, session.UserName); err != nil {
		log.Printf("touch document %d after content patch: %v", documentID, err)
	}
	return result, nil
}

// DeleteContent clears the stored body of a document. Deleting a document
// that was never written is a no-op.
func (s *Service) DeleteContent(ctx context.Context, documentID int64) error {
	if _, err := s.store.GetFunctionDocument(ctx, documentID); err != nil {
		return err
	}
	return s.store.DeleteContent(ctx, documentID)
}


func (s *Service) Search(ctx context.Context, text, filterType, projectID string, limit, offset int) (search.Response, error) {
	switch filterType {
	case "", string(search.ResultProject), string(search.ResultNode), string(search.ResultGlossary):
	default:
		return search.Response{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be project, node, or glossary", nil)
	}

	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	return s.search.Search(search.Query{
		Text:            text,
		FilterType:      search.ResultType(filterType),
		FilterProjectID: projectID,
		Limit:           limit,
		Offset:          offset,
	}), nil
}


func (s *Service) ExportDocument(ctx context.Context, req export.Request) (*export.Result, error) {
	return s.export.Export(ctx, req)
}

// exportStore adapts the data store to what the export service needs.
type exportStore struct {
	store dataStore
}

func (e *exportStore) GetDocumentInfo(ctx context.Context, documentID int64) (export.DocumentInfo, error) {
	document, err := e.store.GetFunctionDocument(ctx, documentID)
	if err != nil {
		return export.DocumentInfo{}, err
	}
	node, err := e.store.GetNode(ctx, document.FunctionNodeID)
	if err != nil {
		return export.DocumentInfo{}, err
	}
	project, err := e.store.GetProject(ctx, node.ProjectID)
	if err != nil {
		return export.DocumentInfo{}, err
	}
	return export.DocumentInfo{
		DocumentID:  documentID,
		Title:       node.Name,
		ProjectID:   project.ID,
		ProjectName: project.Name,
		NodePath:    node.Path,
		EditorName:  document.EditorName,
		EditedAt:    document.EditedAt,
	}, nil
}

func (e *exportStore) GetDocumentContent(ctx context.Context, documentID int64) (interface{}, error) {
	content, err := e.store.GetContent(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return doctree.Normalize(content), nil
}

func (e *exportStore) ListGlossaryTerms(ctx context.Context, projectID int64) ([]export.GlossaryTerm, error) {
	entries, err := e.store.ListGlossary(ctx, projectID)
	if err != nil {
		return nil, err
	}
	terms := make([]export.GlossaryTerm, 0, len(entries))
	for _, entry := range entries {
		terms = append(terms, export.GlossaryTerm{Term: entry.Term, Definition: entry.Definition})
	}
	return terms, nil
}
