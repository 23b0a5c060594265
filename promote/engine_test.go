package promote

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/os-threat/triage/graph"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

func newEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	backend := store.NewFileBackend(t.TempDir(), store.DefaultLayout())
	s := store.New(backend)
	return NewEngine(s), s
}

func openIncident(t *testing.T, e *Engine, id string) store.Scope {
	t.Helper()
	incident := stix.Object{
		"type":    "incident",
		"id":      id,
		"name":    "phishing wave",
		"created": "2024-03-01T10:00:00.000Z",
	}
	require.NoError(t, e.CreateIncident(context.Background(), incident))
	return store.IncidentScope(id)
}

func stageUnattached(t *testing.T, e *Engine, s *store.Store, scope store.Scope, obj stix.Object) {
	t.Helper()
	ctx := context.Background()
	nodes, _, err := e.converter.ConvertNode(obj)
	require.NoError(t, err)
	require.NoError(t, s.UpsertNode(ctx, scope, store.CategoryUnattached, nodes[0]))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		obj  stix.Object
		want store.Category
	}{
		{stix.Object{"type": "relationship"}, store.CategoryRelations},
		{stix.Object{"type": "sighting"}, store.CategoryOther},
		{stix.Object{"type": "sequence", "step_type": "start_step"}, store.CategorySequenceStart},
		{stix.Object{"type": "sequence", "step_type": "single_step"}, store.CategorySequence},
		{stix.Object{"type": "task"}, store.CategoryTask},
		{stix.Object{"type": "event"}, store.CategoryEvent},
		{stix.Object{"type": "impact"}, store.CategoryImpact},
		{stix.Object{"type": "indicator"}, store.CategoryOther},
		{stix.Object{"type": "ipv4-addr"}, store.CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.obj.Type(), func(t *testing.T) {
			got, err := Classify(tt.obj)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Classify(stix.Object{"type": "incident"})
	assert.ErrorIs(t, err, ErrIncidentSelfPromotion)
}

func TestPromoteTask(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	task := stix.Object{
		"type":    "task",
		"id":      "task--2",
		"name":    "block sender",
		"created": "2024-03-01T11:00:00.000Z",
	}
	stageUnattached(t, e, s, scope, task)

	report, err := e.Promote(ctx, []stix.Object{task})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, store.CategoryTask, report[0].Category)

	unattached, err := s.LoadNodes(ctx, scope, store.CategoryUnattached)
	require.NoError(t, err)
	assert.Empty(t, unattached)

	tasks, err := s.LoadNodes(ctx, scope, store.CategoryTask)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "task--2", tasks[0].ID)

	roots, err := s.LoadNodes(ctx, scope, store.CategoryIncident)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, []string{"task--2"}, roots[0].Original.StringList("task_refs"))
}

func TestPromoteRefAppendIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	event := stix.Object{
		"type":    "event",
		"id":      "event--5",
		"created": "2024-03-01T11:00:00.000Z",
	}
	stageUnattached(t, e, s, scope, event)

	_, err := e.Promote(ctx, []stix.Object{event})
	require.NoError(t, err)
	_, err = e.Promote(ctx, []stix.Object{event})
	require.NoError(t, err)

	roots, err := s.LoadNodes(ctx, scope, store.CategoryIncident)
	require.NoError(t, err)
	assert.Equal(t, []string{"event--5"}, roots[0].Original.StringList("event_refs"),
		"promoting twice must not duplicate the reference")

	events, err := s.LoadNodes(ctx, scope, store.CategoryEvent)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestPromoteRelationship(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	reln := stix.Object{
		"type":              "relationship",
		"id":                "relationship--9",
		"relationship_type": "uses",
		"source_ref":        "threat-actor--1",
		"target_ref":        "malware--1",
		"created":           "2024-03-01T11:00:00.000Z",
	}
	report, err := e.Promote(ctx, []stix.Object{reln})
	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, store.CategoryRelations, report[0].Category)

	relations, err := s.LoadNodes(ctx, scope, store.CategoryRelations)
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, "relationship--9", relations[0].ID)

	relationEdges, err := s.LoadEdges(ctx, scope, store.CategoryRelationEdges)
	require.NoError(t, err)
	assert.NotEmpty(t, relationEdges)

	replacements, err := s.LoadEdges(ctx, scope, store.CategoryRelationReplacementEdges)
	require.NoError(t, err)
	assert.NotEmpty(t, replacements)

	// relations is not a reference-list category
	roots, err := s.LoadNodes(ctx, scope, store.CategoryIncident)
	require.NoError(t, err)
	assert.Empty(t, roots[0].Original.StringList("other_object_refs"))
}

func TestPromoteSequenceSteps(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	start := stix.Object{"type": "sequence", "id": "sequence--1", "step_type": "start_step"}
	step := stix.Object{"type": "sequence", "id": "sequence--2", "step_type": "single_step"}

	_, err := e.Promote(ctx, []stix.Object{start, step})
	require.NoError(t, err)

	starts, err := s.LoadNodes(ctx, scope, store.CategorySequenceStart)
	require.NoError(t, err)
	require.Len(t, starts, 1)
	assert.Equal(t, "sequence--1", starts[0].ID)

	steps, err := s.LoadNodes(ctx, scope, store.CategorySequence)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, "sequence--2", steps[0].ID)
}

func TestPromoteIncidentIsRejectedBeforeAnyChange(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	task := stix.Object{"type": "task", "id": "task--2"}
	stageUnattached(t, e, s, scope, task)

	_, err := e.Promote(ctx, []stix.Object{
		task,
		{"type": "incident", "id": "incident--1"},
	})
	assert.ErrorIs(t, err, ErrIncidentSelfPromotion)

	unattached, err := s.LoadNodes(ctx, scope, store.CategoryUnattached)
	require.NoError(t, err)
	assert.Len(t, unattached, 1, "a rejected batch leaves the unattached pool untouched")
}

func TestPromoteWithoutCurrentIncident(t *testing.T) {
	e, _ := newEngine(t)
	_, err := e.Promote(context.Background(), []stix.Object{{"type": "task", "id": "task--1"}})
	assert.ErrorIs(t, err, store.ErrMissingScope)
}

func TestCreateIncidentRegistersScope(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	openIncident(t, e, "incident--7")

	rec, err := s.Directory(ctx)
	require.NoError(t, err)
	assert.Equal(t, "incident--7", rec.CurrentIncident)
	assert.Contains(t, rec.IncidentList, "incident--7")

	require.NoError(t, s.SetCurrentIncident(ctx, "incident--7"))

	err = e.CreateIncident(ctx, stix.Object{"type": "task", "id": "task--1"})
	assert.ErrorIs(t, err, ErrNotIncident)
}

func TestSaveIncidentRebuildsRefLists(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	for i := 0; i < 2; i++ {
		task := stix.Object{"type": "task", "id": fmt.Sprintf("task--%d", i)}
		stageUnattached(t, e, s, scope, task)
		_, err := e.Promote(ctx, []stix.Object{task})
		require.NoError(t, err)
	}
	reln := stix.Object{
		"type":              "relationship",
		"id":                "relationship--1",
		"relationship_type": "related-to",
		"source_ref":        "task--0",
		"target_ref":        "task--1",
	}
	_, err := e.Promote(ctx, []stix.Object{reln})
	require.NoError(t, err)

	incident := stix.Object{
		"type":    "incident",
		"id":      "incident--1",
		"name":    "phishing wave",
		"created": "2024-03-01T10:00:00.000Z",
	}
	require.NoError(t, e.Save(ctx, incident))

	roots, err := s.LoadNodes(ctx, scope, store.CategoryIncident)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	root := roots[0].Original
	assert.ElementsMatch(t, []string{"task--0", "task--1"}, root.StringList("task_refs"))
	assert.Equal(t, []string{"relationship--1"}, root.StringList("other_object_refs"),
		"relations fold into other_object_refs")
	assert.Empty(t, root.StringList("impact_refs"))
}

func TestListIncidentsRepairsDriftedRefs(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	// File a task directly, bypassing the ref-list bookkeeping.
	task := stix.Object{"type": "task", "id": "task--9"}
	nodes, _, err := e.converter.ConvertNode(task)
	require.NoError(t, err)
	require.NoError(t, s.UpsertNode(ctx, scope, store.CategoryTask, nodes[0]))

	roots, err := e.ListIncidents(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Contains(t, roots[0].Original.StringList("task_refs"), "task--9")

	// The repair is persisted.
	persisted, err := s.LoadNodes(ctx, scope, store.CategoryIncident)
	require.NoError(t, err)
	assert.Contains(t, persisted[0].Original.StringList("task_refs"), "task--9")
}

func TestListIncidentsRepairIsStable(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	task := stix.Object{"type": "task", "id": "task--9"}
	nodes, _, err := e.converter.ConvertNode(task)
	require.NoError(t, err)
	require.NoError(t, s.UpsertNode(ctx, scope, store.CategoryTask, nodes[0]))

	_, err = e.ListIncidents(ctx)
	require.NoError(t, err)
	roots, err := e.ListIncidents(ctx)
	require.NoError(t, err)

	// A second pass finds nothing to repair and appends nothing.
	refs := roots[0].Original.StringList("task_refs")
	count := 0
	for _, ref := range refs {
		if ref == "task--9" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSaveDoesNotTouchUnattached(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)
	scope := openIncident(t, e, "incident--1")

	task := stix.Object{
		"type":    "task",
		"id":      "task--7",
		"created": "2024-03-01T11:00:00.000Z",
	}
	stageUnattached(t, e, s, scope, task)

	require.NoError(t, e.Save(ctx, task))

	unattached, err := s.LoadNodes(ctx, scope, store.CategoryUnattached)
	require.NoError(t, err)
	assert.Len(t, unattached, 1, "save files a copy without consuming the pool")

	tasks, err := s.LoadNodes(ctx, scope, store.CategoryTask)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

// labelingConverter wraps the standard converter and stamps every node label,
// making it observable which converter produced a stored node.
type labelingConverter struct {
	std *graph.StandardConverter
}

func (c labelingConverter) ConvertNode(obj stix.Object) ([]graph.Node, []graph.Edge, error) {
	nodes, edges, err := c.std.ConvertNode(obj)
	for i := range nodes {
		nodes[i].Label = "custom:" + nodes[i].ID
	}
	return nodes, edges, err
}

func (c labelingConverter) ConvertRelationship(obj stix.Object) ([]graph.Node, []graph.Edge, []graph.Edge, []graph.Edge, error) {
	return c.std.ConvertRelationship(obj)
}

func (c labelingConverter) ConvertSighting(obj stix.Object) ([]graph.Node, []graph.Edge, error) {
	return c.std.ConvertSighting(obj)
}

func TestSaveUnattachedUsesInjectedConverter(t *testing.T) {
	ctx := context.Background()
	backend := store.NewFileBackend(t.TempDir(), store.DefaultLayout())
	s := store.New(backend)
	e := NewEngine(s, WithConverter(labelingConverter{std: graph.NewConverter()}))
	scope := openIncident(t, e, "incident--1")

	obj := stix.Object{
		"type":           "indicator",
		"id":             "indicator--3",
		"created_by_ref": "identity--1",
	}
	require.NoError(t, e.SaveUnattached(ctx, []stix.Object{obj}))

	staged, err := s.LoadNodes(ctx, scope, store.CategoryUnattached)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "custom:indicator--3", staged[0].Label,
		"staging must run through the engine's converter")

	edges, err := s.LoadEdges(ctx, scope, store.CategoryEdges)
	require.NoError(t, err)
	require.NotEmpty(t, edges)
	assert.Equal(t, "identity--1", edges[len(edges)-1].Target)
}

func TestSaveCompanyObject(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)

	company := stix.Object{"type": "identity", "id": "identity--c", "name": "Acme", "identity_class": "organization"}
	require.NoError(t, e.SaveCompanyObject(ctx, store.CategoryCompany, company))

	scope, err := s.CurrentCompany(ctx)
	require.NoError(t, err)
	assert.Equal(t, "identity--c", scope.ID)

	user := stix.Object{"type": "identity", "id": "identity--u", "name": "Jo", "identity_class": "individual"}
	require.NoError(t, e.SaveCompanyObject(ctx, store.CategoryUsers, user))

	users, err := s.LoadNodes(ctx, scope, store.CategoryUsers)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "identity--u", users[0].ID)

	err = e.SaveCompanyObject(ctx, store.CategoryTask, user)
	assert.ErrorIs(t, err, store.ErrUnknownCategory)
}

func TestSaveUserObject(t *testing.T) {
	ctx := context.Background()
	e, s := newEngine(t)

	me := stix.Object{"type": "identity", "id": "identity--m", "name": "Me", "identity_class": "individual"}
	require.NoError(t, e.SaveUserObject(ctx, store.CategoryMe, me))

	cached, err := s.LoadNodes(ctx, store.UserScope(), store.CategoryMe)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	assert.Equal(t, "identity--m", cached[0].ID)
}
