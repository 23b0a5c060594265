package main

import (
	"github.com/spf13/cobra"

	"github.com/os-threat/triage/query"
	"github.com/os-threat/triage/stix"
	"github.com/os-threat/triage/store"
)

// runBlock opens a session, runs the block body, and writes either its result
// or an error payload. Only input/output plumbing failures make the process
// exit non-zero.
func runBlock(flags *blockFlags, body func(*cobra.Command, *blockFlags) (any, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		result, err := body(cmd, flags)
		return writeResult(flags.outputPath, result, err)
	}
}

type contextResult struct {
	ContextResult string `json:"context_result"`
}

func newCreateIncidentCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "create-incident",
		Short: "Open a new incident context from an incident object",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var obj stix.Object
			if err := readInput(flags.inputPath, &obj); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.CreateIncident(cmd.Context(), obj); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "created incident context " + obj.ID()}, nil
		}),
	}
}

func newOpenIncidentCmd(flags *blockFlags) *cobra.Command {
	var incidentID string
	cmd := &cobra.Command{
		Use:   "open-incident",
		Short: "Select an existing incident as current",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.SetCurrentIncident(cmd.Context(), incidentID); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "current incident is " + incidentID}, nil
		}),
	}
	cmd.Flags().StringVar(&incidentID, "id", "", "incident id to select")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newListIncidentsCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list-incidents",
		Short: "List every registered incident root object",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			return session.ListIncidents(cmd.Context())
		}),
	}
}

func newSaveCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "save",
		Short: "File one object into the current incident",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var obj stix.Object
			if err := readInput(flags.inputPath, &obj); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.Save(cmd.Context(), obj); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "saved " + obj.ID()}, nil
		}),
	}
}

func newSaveUnattachedCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "save-unattached",
		Short: "Stage objects into the unattached pool of the current incident",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var input struct {
				StixList []stix.Object `json:"stix_list"`
			}
			if err := readInput(flags.inputPath, &input); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.SaveUnattached(cmd.Context(), input.StixList); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "staged objects in the unattached pool"}, nil
		}),
	}
}

func newSaveCompanyCmd(flags *blockFlags) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "save-company",
		Short: "File an object into a company category partition",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var obj stix.Object
			if err := readInput(flags.inputPath, &obj); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.SaveCompanyObject(cmd.Context(), store.Category(category), obj); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "saved " + obj.ID() + " into " + category}, nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "", "company category: users, company, assets or systems")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newSaveUserCmd(flags *blockFlags) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "save-user",
		Short: "File an identity into the me or team user cache",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var obj stix.Object
			if err := readInput(flags.inputPath, &obj); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			if err := session.SaveUserObject(cmd.Context(), store.Category(category), obj); err != nil {
				return nil, err
			}
			return contextResult{ContextResult: "saved " + obj.ID() + " into " + category}, nil
		}),
	}
	cmd.Flags().StringVar(&category, "category", "me", "user category: me or team")
	return cmd
}

func newPromoteCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "promote",
		Short: "Move objects from the unattached pool into categorized partitions",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var input struct {
				StixList []stix.Object `json:"stix_list"`
			}
			if err := readInput(flags.inputPath, &input); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			return session.Promote(cmd.Context(), input.StixList)
		}),
	}
}

func newGetCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Find one object in a partition of the current incident",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var input struct {
				ContextType string       `json:"context_type"`
				GetQuery    query.Filter `json:"get_query"`
				SourceValue any          `json:"source_value,omitempty"`
				SourceID    stix.Object  `json:"source_id,omitempty"`
			}
			if err := readInput(flags.inputPath, &input); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			node, err := session.GetFromIncident(cmd.Context(),
				store.Category(input.ContextType), input.GetQuery, input.SourceValue, input.SourceID)
			if err != nil {
				return nil, err
			}
			if node == nil {
				// no match is a normal outcome
				return map[string]any{}, nil
			}
			return node, nil
		}),
	}
}

func newRelationshipTypesCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reln-types",
		Short: "Resolve the valid relationship types between two objects",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var input struct {
				Source stix.Object `json:"source"`
				Target stix.Object `json:"target"`
			}
			if err := readInput(flags.inputPath, &input); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			return session.RelationshipTypes(unwrap(input.Source), unwrap(input.Target)), nil
		}),
	}
}

func newConnectionsCmd(flags *blockFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "connections",
		Short: "List unattached objects that may fill a reference field",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			var input struct {
				ObjectType  string `json:"object_type"`
				ObjectField string `json:"object_field"`
			}
			if err := readInput(flags.inputPath, &input); err != nil {
				return nil, err
			}
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			return session.Connections(cmd.Context(), input.ObjectType, input.ObjectField)
		}),
	}
}

func newIndexCmd(flags *blockFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Materialize a tab view tree",
	}
	tabs := []struct {
		use   string
		short string
	}{
		{"sighting", "Materialize the evidence tree of the current incident"},
		{"task", "Materialize the task tree of the current incident"},
		{"event", "Materialize the event tree of the current incident"},
		{"impact", "Materialize the impact tree of the current incident"},
		{"company", "Materialize the org chart of the current company"},
		{"user", "Materialize the local user view"},
	}
	for _, tab := range tabs {
		use := tab.use
		cmd.AddCommand(&cobra.Command{
			Use:   use,
			Short: tab.short,
			RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
				session, err := openSession(flags)
				if err != nil {
					return nil, err
				}
				defer session.Close()
				switch use {
				case "sighting":
					return session.SightingIndex(cmd.Context())
				case "task":
					return session.TaskIndex(cmd.Context())
				case "event":
					return session.EventIndex(cmd.Context())
				case "impact":
					return session.ImpactIndex(cmd.Context())
				case "company":
					return session.CompanyIndex(cmd.Context())
				default:
					return session.UserIndex(cmd.Context())
				}
			}),
		})
	}
	return cmd
}

func newUnattachedCmd(flags *blockFlags) *cobra.Command {
	var hideRelations bool
	cmd := &cobra.Command{
		Use:   "unattached",
		Short: "Materialize the unattached pool as a flat graph",
		RunE: runBlock(flags, func(cmd *cobra.Command, flags *blockFlags) (any, error) {
			session, err := openSession(flags)
			if err != nil {
				return nil, err
			}
			defer session.Close()
			return session.Unattached(cmd.Context(), !hideRelations)
		}),
	}
	cmd.Flags().BoolVar(&hideRelations, "hide-relations", false,
		"replace relation nodes with direct source-target edges")
	return cmd
}

// unwrap strips a node wrapper, returning the original STIX object when the
// payload carries one.
func unwrap(obj stix.Object) stix.Object {
	if original, ok := obj["original"].(map[string]any); ok {
		return stix.Object(original)
	}
	return obj
}
