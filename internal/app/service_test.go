package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"studio/api/internal/config"
	"studio/api/internal/hydra"
	"studio/api/internal/search"
	"studio/api/internal/session"
	"studio/api/internal/store"
)

type fakeStore struct {
	pingFn func(context.Context) error

	insertProjectFn func(context.Context, store.Project) (store.Project, error)
	listProjectsFn  func(context.Context) ([]store.Project, error)
	getProjectFn    func(context.Context, int64) (store.Project, error)
	updateProjectFn func(context.Context, int64, string, string, string, string) error
	deleteProjectFn func(context.Context, int64) error

	insertNodeFn        func(context.Context, store.ProjectNode) error
	listProjectNodesFn  func(context.Context, int64) ([]store.ProjectNode, error)
	getNodeFn           func(context.Context, string) (store.ProjectNode, error)
	updateNodeFn        func(context.Context, string, string, string, int, string, string) error
	deleteNodeSubtreeFn func(context.Context, int64, string) ([]int64, error)
	getNodeTypeFn       func(context.Context, string) (store.NodeType, error)

	insertFunctionDocumentFn func(context.Context, string, string, string) (int64, error)
	getFunctionDocumentFn    func(context.Context, int64) (store.FunctionDocument, error)
	touchFunctionDocumentFn  func(context.Context, int64, string, string) error

	insertGlossaryEntryFn func(context.Context, store.GlossaryEntry) (store.GlossaryEntry, error)
	listGlossaryFn        func(context.Context, int64) ([]store.GlossaryEntry, error)
	getGlossaryEntryFn    func(context.Context, int64) (store.GlossaryEntry, error)
	updateGlossaryEntryFn func(context.Context, int64, string, string, string, string) error
	deleteGlossaryEntryFn func(context.Context, int64) error

	getContentFn    func(context.Context, int64) (any, error)
	setContentFn    func(context.Context, int64, any) error
	deleteContentFn func(context.Context, int64) error
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}
func (f *fakeStore) InsertProject(ctx context.Context, p store.Project) (store.Project, error) {
	if f.insertProjectFn != nil {
		return f.insertProjectFn(ctx, p)
	}
	p.ID = 1
	return p, nil
}
func (f *fakeStore) ListProjects(ctx context.Context) ([]store.Project, error) {
	if f.listProjectsFn != nil {
		return f.listProjectsFn(ctx)
	}
	return nil, nil
}
func (f *fakeStore) GetProject(ctx context.Context, id int64) (store.Project, error) {
	if f.getProjectFn != nil {
		return f.getProjectFn(ctx, id)
	}
	return store.Project{ID: id, Name: "Project"}, nil
}
func (f *fakeStore) UpdateProject(ctx context.Context, id int64, name, description, editorID, editorName string) error {
	if f.updateProjectFn != nil {
		return f.updateProjectFn(ctx, id, name, description, editorID, editorName)
	}
	return nil
}
func (f *fakeStore) DeleteProject(ctx context.Context, id int64) error {
	if f.deleteProjectFn != nil {
		return f.deleteProjectFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) InsertNode(ctx context.Context, n store.ProjectNode) error {
	if f.insertNodeFn != nil {
		return f.insertNodeFn(ctx, n)
	}
	return nil
}
func (f *fakeStore) ListProjectNodes(ctx context.Context, projectID int64) ([]store.ProjectNode, error) {
	if f.listProjectNodesFn != nil {
		return f.listProjectNodesFn(ctx, projectID)
	}
	return nil, nil
}
func (f *fakeStore) GetNode(ctx context.Context, id string) (store.ProjectNode, error) {
	if f.getNodeFn != nil {
		return f.getNodeFn(ctx, id)
	}
	return store.ProjectNode{ID: id}, nil
}
func (f *fakeStore) UpdateNode(ctx context.Context, id, name, description string, sort int, editorID, editorName string) error {
	if f.updateNodeFn != nil {
		return f.updateNodeFn(ctx, id, name, description, sort, editorID, editorName)
	}
	return nil
}
func (f *fakeStore) DeleteNodeSubtree(ctx context.Context, projectID int64, path string) ([]int64, error) {
	if f.deleteNodeSubtreeFn != nil {
		return f.deleteNodeSubtreeFn(ctx, projectID, path)
	}
	return nil, nil
}
func (f *fakeStore) GetNodeType(ctx context.Context, code string) (store.NodeType, error) {
	if f.getNodeTypeFn != nil {
		return f.getNodeTypeFn(ctx, code)
	}
	return store.NodeType{Code: code}, nil
}
func (f *fakeStore) InsertFunctionDocument(ctx context.Context, functionNodeID, creatorID, creatorName string) (int64, error) {
	if f.insertFunctionDocumentFn != nil {
		return f.insertFunctionDocumentFn(ctx, functionNodeID, creatorID, creatorName)
	}
	return 1, nil
}
func (f *fakeStore) GetFunctionDocument(ctx context.Context, id int64) (store.FunctionDocument, error) {
	if f.getFunctionDocumentFn != nil {
		return f.getFunctionDocumentFn(ctx, id)
	}
	return store.FunctionDocument{ID: id}, nil
}
func (f *fakeStore) TouchFunctionDocument(ctx context.Context, id int64, editorID, editorName string) error {
	if f.touchFunctionDocumentFn != nil {
		return f.touchFunctionDocumentFn(ctx, id, editorID, editorName)
	}
	return nil
}
func (f *fakeStore) InsertGlossaryEntry(ctx context.Context, e store.GlossaryEntry) (store.GlossaryEntry, error) {
	if f.insertGlossaryEntryFn != nil {
		return f.insertGlossaryEntryFn(ctx, e)
	}
	e.ID = 1
	return e, nil
}
func (f *fakeStore) ListGlossary(ctx context.Context, projectID int64) ([]store.GlossaryEntry, error) {
	if f.listGlossaryFn != nil {
		return f.listGlossaryFn(ctx, projectID)
	}
	return nil, nil
}
func (f *fakeStore) GetGlossaryEntry(ctx context.Context, id int64) (store.GlossaryEntry, error) {
	if f.getGlossaryEntryFn != nil {
		return f.getGlossaryEntryFn(ctx, id)
	}
	return store.GlossaryEntry{ID: id}, nil
}
func (f *fakeStore) UpdateGlossaryEntry(ctx context.Context, id int64, term, definition, editorID, editorName string) error {
	if f.updateGlossaryEntryFn != nil {
		return f.updateGlossaryEntryFn(ctx, id, term, definition, editorID, editorName)
	}
	return nil
}
func (f *fakeStore) DeleteGlossaryEntry(ctx context.Context, id int64) error {
	if f.deleteGlossaryEntryFn != nil {
		return f.deleteGlossaryEntryFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) GetContent(ctx context.Context, id int64) (any, error) {
	if f.getContentFn != nil {
		return f.getContentFn(ctx, id)
	}
	return map[string]any{}, nil
}
func (f *fakeStore) SetContent(ctx context.Context, id int64, content any) error {
	if f.setContentFn != nil {
		return f.setContentFn(ctx, id, content)
	}
	return nil
}
func (f *fakeStore) DeleteContent(ctx context.Context, id int64) error {
	if f.deleteContentFn != nil {
		return f.deleteContentFn(ctx, id)
	}
	return nil
}

type fakeIntrospector struct {
	introspectFn func(context.Context, string) (hydra.Introspection, error)
}

func (f *fakeIntrospector) Introspect(ctx context.Context, token string) (hydra.Introspection, error) {
	if f.introspectFn != nil {
		return f.introspectFn(ctx, token)
	}
	return hydra.Introspection{}, nil
}

type fakeDirectory struct {
	userNameFn func(context.Context, string) (string, error)
}

func (f *fakeDirectory) UserName(ctx context.Context, id string) (string, error) {
	if f.userNameFn != nil {
		return f.userNameFn(ctx, id)
	}
	return id, nil
}

type fakeIdentityCache struct {
	getFn func(context.Context, string) (session.Identity, bool, error)
	putFn func(context.Context, string, session.Identity) error
}

func (f *fakeIdentityCache) Get(ctx context.Context, token string) (session.Identity, bool, error) {
	if f.getFn != nil {
		return f.getFn(ctx, token)
	}
	return session.Identity{}, false, nil
}
func (f *fakeIdentityCache) Put(ctx context.Context, token string, identity session.Identity) error {
	if f.putFn != nil {
		return f.putFn(ctx, token, identity)
	}
	return nil
}
func (f *fakeIdentityCache) Ping(context.Context) error { return nil }

type fakeSearch struct {
	indexed []string
	deleted []string
}

func (f *fakeSearch) Search(q search.Query) search.Response {
	return search.Response{Results: []search.Result{}, Query: q.Text}
}
func (f *fakeSearch) IndexProject(p search.ProjectRecord)  { f.indexed = append(f.indexed, "project:"+p.ID) }
func (f *fakeSearch) IndexNode(n search.NodeRecord)        { f.indexed = append(f.indexed, "node:"+n.ID) }
func (f *fakeSearch) IndexGlossary(g search.GlossaryRecord) {
	f.indexed = append(f.indexed, "glossary:"+g.ID)
}
func (f *fakeSearch) DeleteProject(id string)  { f.deleted = append(f.deleted, "project:"+id) }
func (f *fakeSearch) DeleteNode(id string)     { f.deleted = append(f.deleted, "node:"+id) }
func (f *fakeSearch) DeleteGlossary(id string) { f.deleted = append(f.deleted, "glossary:"+id) }

func newTestService(fs *fakeStore) *Service {
	return &Service{
		cfg:      config.Config{},
		store:    fs,
		docLocks: make(map[int64]*sync.Mutex),
	}
}

var testSession = Session{UserID: "user-1", UserName: "Avery"}

func domainErrFrom(t *testing.T, err error) *DomainError {
	t.Helper()
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected DomainError, got %v", err)
	}
	return domainErr
}

func TestPutContentNormalizesBeforeStoring(t *testing.T) {
	var stored any
	fs := &fakeStore{
		setContentFn: func(_ context.Context, _ int64, content any) error {
			stored = content
			return nil
		},
	}
	svc := newTestService(fs)

	result, err := svc.PutContent(context.Background(), 7, map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{"type": "paragraph"},
		},
	}, testSession)
	if err != nil {
		t.Fatalf("put content: %v", err)
	}

	doc := result.(map[string]any)
	paragraph := doc["content"].([]any)[0].(map[string]any)
	leaves, ok := paragraph["content"].([]any)
	if !ok || len(leaves) != 1 {
		t.Fatalf("paragraph content not normalized: %v", paragraph["content"])
	}
	leaf := leaves[0].(map[string]any)
	if leaf["type"] != "text" || leaf["text"] != "" {
		t.Fatalf("expected empty text leaf, got %v", leaf)
	}
	if stored == nil {
		t.Fatal("normalized document was not stored")
	}
}

func TestContentWriteSurvivesAuditTouchFailure(t *testing.T) {
	var stored any
	fs := &fakeStore{
		setContentFn: func(_ context.Context, _ int64, content any) error {
			stored = content
			return nil
		},
		touchFunctionDocumentFn: func(context.Context, int64, string, string) error {
			return errors.New("edited_at update lost")
		},
	}
	svc := newTestService(fs)

	result, err := svc.PutContent(context.Background(), 7, map[string]any{"type": "doc"}, testSession)
	if err != nil {
		t.Fatalf("put content: %v", err)
	}
	if result == nil || stored == nil {
		t.Fatal("content write should succeed despite the audit failure")
	}
}

func TestPutContentRejectsNonObject(t *testing.T) {
	stored := false
	fs := &fakeStore{
		setContentFn: func(context.Context, int64, any) error {
			stored = true
			return nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.PutContent(context.Background(), 7, []any{"not", "an", "object"}, testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "INVALID_RESULT" {
		t.Fatalf("expected INVALID_RESULT, got %s", domainErr.Code)
	}
	if stored {
		t.Fatal("rejected content must not be stored")
	}
}

func TestPatchSucceedsOnSparseDocument(t *testing.T) {
	// The stored document has no content array at all; the patch addresses
	// /content/0, which only resolves after normalization.
	var stored any
	fs := &fakeStore{
		getContentFn: func(context.Context, int64) (any, error) {
			return map[string]any{"type": "doc"}, nil
		},
		setContentFn: func(_ context.Context, _ int64, content any) error {
			stored = content
			return nil
		},
	}
	svc := newTestService(fs)

	ops := []byte(`[{"op":"add","path":"/content/0","value":{"type":"paragraph","content":[{"type":"text","text":"hi"}]}}]`)
	result, err := svc.PatchContent(context.Background(), 7, ops, testSession)
	if err != nil {
		t.Fatalf("patch: %v", err)
	}

	doc := result.(map[string]any)
	children := doc["content"].([]any)
	if len(children) != 1 {
		t.Fatalf("expected one child, got %d", len(children))
	}
	if stored == nil {
		t.Fatal("patched document was not stored")
	}
}

func TestPatchOnAbsentDocumentStartsFromEmptyObject(t *testing.T) {
	fs := &fakeStore{
		getContentFn: func(context.Context, int64) (any, error) {
			// Store reads absent content as an empty object, not an error.
			return map[string]any{}, nil
		},
	}
	svc := newTestService(fs)

	ops := []byte(`[{"op":"add","path":"/type","value":"doc"}]`)
	result, err := svc.PatchContent(context.Background(), 7, ops, testSession)
	if err != nil {
		t.Fatalf("patch on absent document: %v", err)
	}
	if result.(map[string]any)["type"] != "doc" {
		t.Fatalf("unexpected result: %v", result)
	}
}

func TestPatchFailureReportsOperationAndStoresNothing(t *testing.T) {
	stored := false
	fs := &fakeStore{
		getContentFn: func(context.Context, int64) (any, error) {
			return map[string]any{"type": "doc"}, nil
		},
		setContentFn: func(context.Context, int64, any) error {
			stored = true
			return nil
		},
	}
	svc := newTestService(fs)

	ops := []byte(`[
		{"op":"add","path":"/title","value":"ok"},
		{"op":"replace","path":"/missing/deep","value":1}
	]`)
	_, err := svc.PatchContent(context.Background(), 7, ops, testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "PATCH_FAILED" {
		t.Fatalf("expected PATCH_FAILED, got %s", domainErr.Code)
	}
	details := domainErr.Details.(map[string]any)
	if details["index"] != 1 {
		t.Fatalf("expected failing index 1, got %v", details["index"])
	}
	if details["path"] != "/missing/deep" {
		t.Fatalf("expected failing path, got %v", details["path"])
	}
	if stored {
		t.Fatal("failed batch must not store a partial result")
	}
}

func TestPatchRejectsNonObjectRoot(t *testing.T) {
	stored := false
	fs := &fakeStore{
		getContentFn: func(context.Context, int64) (any, error) {
			return map[string]any{"type": "doc"}, nil
		},
		setContentFn: func(context.Context, int64, any) error {
			stored = true
			return nil
		},
	}
	svc := newTestService(fs)

	ops := []byte(`[{"op":"replace","path":"","value":[1,2,3]}]`)
	_, err := svc.PatchContent(context.Background(), 7, ops, testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "INVALID_RESULT" {
		t.Fatalf("expected INVALID_RESULT, got %s", domainErr.Code)
	}
	if stored {
		t.Fatal("non-object root must not be stored")
	}
}

func TestPatchUnknownDocumentIs404(t *testing.T) {
	fs := &fakeStore{
		getFunctionDocumentFn: func(context.Context, int64) (store.FunctionDocument, error) {
			return store.FunctionDocument{}, sql.ErrNoRows
		},
	}
	svc := newTestService(fs)

	_, err := svc.PatchContent(context.Background(), 99, []byte(`[]`), testSession)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestCreateNodeRejectsDisallowedParent(t *testing.T) {
	fs := &fakeStore{
		getNodeTypeFn: func(_ context.Context, code string) (store.NodeType, error) {
			return store.NodeType{Code: "page", ParentAllow: "application"}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateNode(context.Background(), 1, CreateNodeInput{
		NodeType: "page",
		Name:     "Orphan page",
	}, testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "INVALID_PARENT" {
		t.Fatalf("expected INVALID_PARENT, got %s", domainErr.Code)
	}
}

func TestCreateNodeRejectsParentFromOtherProject(t *testing.T) {
	parentID := "parent-1"
	fs := &fakeStore{
		getNodeTypeFn: func(_ context.Context, code string) (store.NodeType, error) {
			return store.NodeType{Code: "page", ParentAllow: "application"}, nil
		},
		getNodeFn: func(_ context.Context, id string) (store.ProjectNode, error) {
			return store.ProjectNode{ID: id, ProjectID: 2, NodeType: "application"}, nil
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateNode(context.Background(), 1, CreateNodeInput{
		ParentID: &parentID,
		NodeType: "page",
		Name:     "Page",
	}, testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", domainErr.Code)
	}
}

func TestCreateFunctionNodeAttachesDocument(t *testing.T) {
	parentID := "parent-1"
	var inserted store.ProjectNode
	fs := &fakeStore{
		getNodeTypeFn: func(_ context.Context, code string) (store.NodeType, error) {
			return store.NodeType{Code: "function", ParentAllow: "page"}, nil
		},
		getNodeFn: func(_ context.Context, id string) (store.ProjectNode, error) {
			if id == parentID {
				return store.ProjectNode{ID: id, ProjectID: 1, NodeType: "page", Path: "/node_parent-1"}, nil
			}
			return inserted, nil
		},
		insertFunctionDocumentFn: func(_ context.Context, functionNodeID, _, _ string) (int64, error) {
			if functionNodeID == "" {
				t.Fatal("function document created without a node id")
			}
			return 42, nil
		},
		insertNodeFn: func(_ context.Context, n store.ProjectNode) error {
			inserted = n
			return nil
		},
	}
	svc := newTestService(fs)

	node, err := svc.CreateNode(context.Background(), 1, CreateNodeInput{
		ParentID: &parentID,
		NodeType: "function",
		Name:     "Login flow",
	}, testSession)
	if err != nil {
		t.Fatalf("create node: %v", err)
	}
	if node.DocumentID == nil || *node.DocumentID != 42 {
		t.Fatalf("expected document id 42, got %v", node.DocumentID)
	}
	wantPath := "/node_parent-1/node_" + node.ID
	if node.Path != wantPath {
		t.Fatalf("expected path %s, got %s", wantPath, node.Path)
	}
	if node.Status != "active" {
		t.Fatalf("expected active status, got %q", node.Status)
	}
}

func TestCreateProjectDuplicateName(t *testing.T) {
	fs := &fakeStore{
		insertProjectFn: func(context.Context, store.Project) (store.Project, error) {
			return store.Project{}, store.ErrDuplicateName
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateProject(context.Background(), "Billing", "", testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Status != 409 || domainErr.Code != "DUPLICATE_NAME" {
		t.Fatalf("expected 409 DUPLICATE_NAME, got %d %s", domainErr.Status, domainErr.Code)
	}
}

func TestCreateProjectValidatesName(t *testing.T) {
	svc := newTestService(&fakeStore{})

	for _, name := range []string{"", "   ", string(make([]byte, maxProjectNameLen+1))} {
		_, err := svc.CreateProject(context.Background(), name, "", testSession)
		domainErr := domainErrFrom(t, err)
		if domainErr.Code != "VALIDATION_ERROR" {
			t.Fatalf("name %q: expected VALIDATION_ERROR, got %s", name, domainErr.Code)
		}
	}
}

func TestCreateGlossaryDuplicateTerm(t *testing.T) {
	fs := &fakeStore{
		insertGlossaryEntryFn: func(context.Context, store.GlossaryEntry) (store.GlossaryEntry, error) {
			return store.GlossaryEntry{}, store.ErrDuplicateTerm
		},
	}
	svc := newTestService(fs)

	_, err := svc.CreateGlossaryEntry(context.Background(), 1, "API", "Application programming interface", testSession)
	domainErr := domainErrFrom(t, err)
	if domainErr.Status != 409 || domainErr.Code != "DUPLICATE_TERM" {
		t.Fatalf("expected 409 DUPLICATE_TERM, got %d %s", domainErr.Status, domainErr.Code)
	}
}

func TestDeleteNodeRemovesSubtreeContent(t *testing.T) {
	var deletedContent []int64
	fs := &fakeStore{
		getNodeFn: func(_ context.Context, id string) (store.ProjectNode, error) {
			return store.ProjectNode{ID: id, ProjectID: 1, Path: "/node_" + id}, nil
		},
		deleteNodeSubtreeFn: func(_ context.Context, projectID int64, path string) ([]int64, error) {
			if path != "/node_n1" {
				t.Fatalf("unexpected subtree path %s", path)
			}
			return []int64{7, 8}, nil
		},
		deleteContentFn: func(_ context.Context, id int64) error {
			deletedContent = append(deletedContent, id)
			return nil
		},
	}
	svc := newTestService(fs)

	if err := svc.DeleteNode(context.Background(), "n1"); err != nil {
		t.Fatalf("delete node: %v", err)
	}
	if len(deletedContent) != 2 || deletedContent[0] != 7 || deletedContent[1] != 8 {
		t.Fatalf("expected content 7 and 8 deleted, got %v", deletedContent)
	}
}

func TestGetProjectTreeBuildsForest(t *testing.T) {
	rootID := "root-1"
	fs := &fakeStore{
		listProjectNodesFn: func(context.Context, int64) ([]store.ProjectNode, error) {
			return []store.ProjectNode{
				{ID: rootID, NodeType: "application", Name: "App"},
				{ID: "page-1", ParentID: &rootID, NodeType: "page", Name: "First page"},
				{ID: "page-2", ParentID: &rootID, NodeType: "page", Name: "Second page"},
			}, nil
		},
	}
	svc := newTestService(fs)

	tree, err := svc.GetProjectTree(context.Background(), 1)
	if err != nil {
		t.Fatalf("tree: %v", err)
	}
	if len(tree) != 1 {
		t.Fatalf("expected one root, got %d", len(tree))
	}
	if len(tree[0].Children) != 2 {
		t.Fatalf("expected two children, got %d", len(tree[0].Children))
	}
	if tree[0].Children[0].Name != "First page" {
		t.Fatalf("child order not preserved: %s", tree[0].Children[0].Name)
	}
	if tree[0].Children[0].Children == nil {
		t.Fatal("leaf children must serialize as an empty array, not null")
	}
}

func TestSearchRejectsUnknownType(t *testing.T) {
	svc := newTestService(&fakeStore{})

	_, err := svc.Search(context.Background(), "query", "widget", "", 10, 0)
	domainErr := domainErrFrom(t, err)
	if domainErr.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", domainErr.Code)
	}
}

func TestSearchWithoutBackendReturnsEmpty(t *testing.T) {
	svc := newTestService(&fakeStore{})

	payload, err := svc.Search(context.Background(), "query", "", "", 10, 0)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if payload.Results == nil || len(payload.Results) != 0 {
		t.Fatalf("expected empty results, got %v", payload.Results)
	}
}

func TestDeleteProjectCleansIndexAndContent(t *testing.T) {
	documentID := int64(5)
	var deletedContent []int64
	fs := &fakeStore{
		listProjectNodesFn: func(context.Context, int64) ([]store.ProjectNode, error) {
			return []store.ProjectNode{
				{ID: "n1", NodeType: "function", DocumentID: &documentID},
			}, nil
		},
		deleteContentFn: func(_ context.Context, id int64) error {
			deletedContent = append(deletedContent, id)
			return nil
		},
	}
	svc := newTestService(fs)
	idx := &fakeSearch{}
	svc.search = idx

	if err := svc.DeleteProject(context.Background(), 1); err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if len(deletedContent) != 1 || deletedContent[0] != 5 {
		t.Fatalf("expected content 5 deleted, got %v", deletedContent)
	}
	want := []string{"node:n1", "project:1"}
	if len(idx.deleted) != 2 || idx.deleted[0] != want[0] || idx.deleted[1] != want[1] {
		t.Fatalf("expected index deletions %v, got %v", want, idx.deleted)
	}
}

func TestSessionFromTokenIntrospectsAndCaches(t *testing.T) {
	var cached session.Identity
	svc := newTestService(&fakeStore{})
	svc.introspect = &fakeIntrospector{
		introspectFn: func(_ context.Context, token string) (hydra.Introspection, error) {
			if token != "tok-1" {
				t.Fatalf("unexpected token %q", token)
			}
			return hydra.Introspection{Active: true, Subject: "user-1", VisitorType: "member"}, nil
		},
	}
	svc.users = &fakeDirectory{
		userNameFn: func(_ context.Context, id string) (string, error) {
			return "Avery", nil
		},
	}
	svc.cache = &fakeIdentityCache{
		putFn: func(_ context.Context, _ string, identity session.Identity) error {
			cached = identity
			return nil
		},
	}

	sess, err := svc.SessionFromToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.UserID != "user-1" || sess.UserName != "Avery" || sess.VisitorType != "member" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if cached.UserID != "user-1" || cached.ResolvedAt.IsZero() {
		t.Fatalf("identity not cached: %+v", cached)
	}
}

func TestSessionFromTokenCacheHitSkipsIntrospection(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.introspect = &fakeIntrospector{
		introspectFn: func(context.Context, string) (hydra.Introspection, error) {
			t.Fatal("introspection must not run on a cache hit")
			return hydra.Introspection{}, nil
		},
	}
	svc.cache = &fakeIdentityCache{
		getFn: func(context.Context, string) (session.Identity, bool, error) {
			return session.Identity{UserID: "user-1", UserName: "Avery"}, true, nil
		},
	}

	sess, err := svc.SessionFromToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.UserName != "Avery" {
		t.Fatalf("unexpected session %+v", sess)
	}
}

func TestSessionFromTokenInactiveIsUnauthorized(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.introspect = &fakeIntrospector{
		introspectFn: func(context.Context, string) (hydra.Introspection, error) {
			return hydra.Introspection{Active: false}, nil
		},
	}

	_, err := svc.SessionFromToken(context.Background(), "expired")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestSessionFromTokenDirectoryOutageFallsBack(t *testing.T) {
	svc := newTestService(&fakeStore{})
	svc.introspect = &fakeIntrospector{
		introspectFn: func(context.Context, string) (hydra.Introspection, error) {
			return hydra.Introspection{Active: true, Subject: "user-1"}, nil
		},
	}
	svc.users = &fakeDirectory{
		userNameFn: func(context.Context, string) (string, error) {
			return "", fmt.Errorf("directory unavailable")
		},
	}

	sess, err := svc.SessionFromToken(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.UserName != "user-1" {
		t.Fatalf("expected fallback to subject id, got %q", sess.UserName)
	}
}
