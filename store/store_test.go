package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	backend := NewFileBackend(dir, DefaultLayout())
	return New(backend), dir
}

func TestLoadNodesAbsentPartition(t *testing.T) {
	s, _ := newStore(t)
	nodes, err := s.LoadNodes(context.Background(), IncidentScope("incident--1"), CategoryTask)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestUpsertNodeInsertsAndReplaces(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	scope := IncidentScope("incident--1")

	first := graph.Node{ID: "task--1", Type: "task", Original: stix.Object{"id": "task--1", "name": "old"}}
	require.NoError(t, s.UpsertNode(ctx, scope, CategoryTask, first))

	// same id replaces in place
	second := first
	second.Original = stix.Object{"id": "task--1", "name": "new"}
	require.NoError(t, s.UpsertNode(ctx, scope, CategoryTask, second))

	other := graph.Node{ID: "task--2", Type: "task"}
	require.NoError(t, s.UpsertNode(ctx, scope, CategoryTask, other))

	nodes, err := s.LoadNodes(ctx, scope, CategoryTask)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "task--1", nodes[0].ID)
	assert.Equal(t, "new", nodes[0].Original.GetString("name"))
	assert.Equal(t, "task--2", nodes[1].ID)
}

func TestDeleteNode(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	scope := IncidentScope("incident--1")

	require.NoError(t, s.SaveNodes(ctx, scope, CategoryOther, []graph.Node{
		{ID: "indicator--1"}, {ID: "indicator--2"},
	}))
	require.NoError(t, s.DeleteNode(ctx, scope, CategoryOther, "indicator--1"))

	nodes, err := s.LoadNodes(ctx, scope, CategoryOther)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "indicator--2", nodes[0].ID)

	// deleting an absent id is a no-op
	require.NoError(t, s.DeleteNode(ctx, scope, CategoryOther, "indicator--9"))
}

func TestUpsertEdgeDedupesOnEndpoints(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	scope := IncidentScope("incident--1")

	edge := graph.Edge{Label: "task_refs", Source: "incident--1", Target: "task--1"}
	require.NoError(t, s.UpsertEdge(ctx, scope, CategoryEdges, edge))

	relabeled := edge
	relabeled.Label = "renamed"
	require.NoError(t, s.UpsertEdge(ctx, scope, CategoryEdges, relabeled))

	reversed := graph.Edge{Label: "task_refs", Source: "task--1", Target: "incident--1"}
	require.NoError(t, s.UpsertEdge(ctx, scope, CategoryEdges, reversed))

	edges, err := s.LoadEdges(ctx, scope, CategoryEdges)
	require.NoError(t, err)
	require.Len(t, edges, 2, "same endpoints overwrite, reversed endpoints append")
	assert.Equal(t, "renamed", edges[0].Label)
}

func TestMalformedPartition(t *testing.T) {
	ctx := context.Background()
	s, dir := newStore(t)
	scope := IncidentScope("incident--1")

	path := filepath.Join(dir, scope.Dir(), "task_refs.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := s.LoadNodes(ctx, scope, CategoryTask)
	assert.ErrorIs(t, err, ErrStorageFailed)
}

func TestLayoutRejectsUnknownCategory(t *testing.T) {
	layout := DefaultLayout()

	_, err := layout.FileName(IncidentScope("incident--1"), CategoryUsers)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = layout.FileName(CompanyScope("identity--1"), CategoryTask)
	assert.ErrorIs(t, err, ErrUnknownCategory)

	_, err = layout.FileName(Scope{Kind: "volume"}, CategoryTask)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDirectoryDefaults(t *testing.T) {
	s, _ := newStore(t)
	rec, err := s.Directory(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rec.CurrentIncident)
	assert.Empty(t, rec.CurrentCompany)
	assert.NotNil(t, rec.IncidentList)
	assert.NotNil(t, rec.CompanyList)
}

func TestRegisterIncidentIdempotent(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.RegisterIncident(ctx, "incident--1"))
	require.NoError(t, s.RegisterIncident(ctx, "incident--2"))
	require.NoError(t, s.RegisterIncident(ctx, "incident--1"))

	rec, err := s.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"incident--1", "incident--2"}, rec.IncidentList)
	assert.Equal(t, "incident--1", rec.CurrentIncident)

	scope, err := s.CurrentIncident(ctx)
	require.NoError(t, err)
	assert.Equal(t, IncidentScope("incident--1"), scope)
}

func TestRegisterCompany(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.RegisterCompany(ctx, "identity--co"))
	scope, err := s.CurrentCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, CompanyScope("identity--co"), scope)
}

func TestCurrentIncidentMissing(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.CurrentIncident(context.Background())
	assert.ErrorIs(t, err, ErrMissingScope)
	_, err = s.CurrentCompany(context.Background())
	assert.ErrorIs(t, err, ErrMissingScope)
}

func TestSetCurrentIncidentRequiresPartition(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	err := s.SetCurrentIncident(ctx, "incident--ghost")
	assert.ErrorIs(t, err, ErrUnknownIncident)

	scope := IncidentScope("incident--1")
	require.NoError(t, s.SaveNodes(ctx, scope, CategoryIncident, []graph.Node{
		{ID: "incident--1", Type: "incident"},
	}))
	require.NoError(t, s.SetCurrentIncident(ctx, "incident--1"))

	rec, err := s.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "incident--1", rec.CurrentIncident)
}

func TestScopeDirs(t *testing.T) {
	assert.Equal(t, "incident--1", IncidentScope("incident--1").Dir())
	assert.Equal(t, "identity--1", CompanyScope("identity--1").Dir())
	assert.Equal(t, "usr", UserScope().Dir())
}

func TestPartitionsAreIsolatedByScope(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	require.NoError(t, s.UpsertNode(ctx, IncidentScope("incident--1"), CategoryTask,
		graph.Node{ID: "task--1"}))
	require.NoError(t, s.UpsertNode(ctx, IncidentScope("incident--2"), CategoryTask,
		graph.Node{ID: "task--2"}))

	nodes, err := s.LoadNodes(ctx, IncidentScope("incident--1"), CategoryTask)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "task--1", nodes[0].ID)
}
