package store

// Category names a partition within a scope. The set of valid categories
// depends on the scope kind; see Layout.
type Category string

// Incident scope categories.
const (
	CategoryIncident      Category = "incident"
	CategorySequenceStart Category = "sequence_start"
	CategorySequence      Category = "sequence"
	CategoryImpact        Category = "impact"
	CategoryEvent         Category = "event"
	CategoryTask          Category = "task"
	CategoryOther         Category = "other"
	CategoryUnattached    Category = "unattached"
)

// Categories shared by every scope kind.
const (
	CategoryRelations                Category = "relations"
	CategoryEdges                    Category = "edges"
	CategoryRelationEdges            Category = "relation_edges"
	CategoryRelationReplacementEdges Category = "relation_replacement_edges"
)

// Company scope categories.
const (
	CategoryUsers   Category = "users"
	CategoryCompany Category = "company"
	CategoryAssets  Category = "assets"
	CategorySystems Category = "systems"
)

// User scope categories.
const (
	CategoryMe   Category = "me"
	CategoryTeam Category = "team"
)

// incidentRefFields maps the six incident-level categories to the reference
// list field carried on the incident root object. Promotions into these
// categories must mirror the id into the matching field.
var incidentRefFields = map[Category]string{
	CategorySequenceStart: "sequence_start_refs",
	CategorySequence:      "sequence_refs",
	CategoryImpact:        "impact_refs",
	CategoryEvent:         "event_refs",
	CategoryTask:          "task_refs",
	CategoryOther:         "other_object_refs",
}

// RefField returns the incident reference-list field mirroring the given
// category, with ok=false for categories that carry no reference list.
func RefField(category Category) (string, bool) {
	field, ok := incidentRefFields[category]
	return field, ok
}

// IncidentRefCategories returns the incident-level categories that mirror
// into the incident root's reference lists, in view order.
func IncidentRefCategories() []Category {
	return []Category{
		CategorySequenceStart,
		CategorySequence,
		CategoryImpact,
		CategoryEvent,
		CategoryTask,
		CategoryOther,
	}
}
