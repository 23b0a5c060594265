package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// DirectoryRecord is the scope directory: the current incident and company
// selections plus every known incident and company scope id. It lives in a
// single small file under the memory root and is read and written whole.
type DirectoryRecord struct {
	CurrentIncident string   `json:"current_incident"`
	CurrentCompany  string   `json:"current_company"`
	CompanyList     []string `json:"company_list"`
	IncidentList    []string `json:"incident_list"`
}

// Directory returns the scope directory record, with empty defaults if it
// has never been created.
func (s *Store) Directory(ctx context.Context) (DirectoryRecord, error) {
	rec := DirectoryRecord{CompanyList: []string{}, IncidentList: []string{}}
	data, err := s.backend.ReadDirectory(ctx)
	if err != nil {
		return rec, err
	}
	if data == nil {
		return rec, nil
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("%w: scope directory is malformed: %v", ErrStorageFailed, err)
	}
	return rec, nil
}

// SaveDirectory persists the scope directory record.
func (s *Store) SaveDirectory(ctx context.Context, rec DirectoryRecord) error {
	if rec.CompanyList == nil {
		rec.CompanyList = []string{}
	}
	if rec.IncidentList == nil {
		rec.IncidentList = []string{}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("%w: encoding scope directory: %v", ErrStorageFailed, err)
	}
	return s.backend.WriteDirectory(ctx, data)
}

// CurrentIncident resolves the currently selected incident scope.
// Returns ErrMissingScope when none is selected.
func (s *Store) CurrentIncident(ctx context.Context) (Scope, error) {
	rec, err := s.Directory(ctx)
	if err != nil {
		return Scope{}, err
	}
	if rec.CurrentIncident == "" {
		return Scope{}, fmt.Errorf("%w: no current incident", ErrMissingScope)
	}
	return IncidentScope(rec.CurrentIncident), nil
}

// CurrentCompany resolves the currently selected company scope.
// Returns ErrMissingScope when none is selected.
func (s *Store) CurrentCompany(ctx context.Context) (Scope, error) {
	rec, err := s.Directory(ctx)
	if err != nil {
		return Scope{}, err
	}
	if rec.CurrentCompany == "" {
		return Scope{}, fmt.Errorf("%w: no current company", ErrMissingScope)
	}
	return CompanyScope(rec.CurrentCompany), nil
}

// SetCurrentIncident selects an incident as current. The incident must have
// a non-empty incident partition; selecting an unknown incident returns
// ErrUnknownIncident.
func (s *Store) SetCurrentIncident(ctx context.Context, id string) error {
	nodes, err := s.LoadNodes(ctx, IncidentScope(id), CategoryIncident)
	if err != nil {
		return err
	}
	if len(nodes) == 0 {
		return fmt.Errorf("%w: %s has no incident partition", ErrUnknownIncident, id)
	}
	rec, err := s.Directory(ctx)
	if err != nil {
		return err
	}
	rec.CurrentIncident = id
	return s.SaveDirectory(ctx, rec)
}

// RegisterIncident adds an incident id to the known-incident list
// (idempotently) and selects it as current. Unlike SetCurrentIncident it
// does not require the incident partition to exist yet, since registration
// happens while the incident context is being created.
func (s *Store) RegisterIncident(ctx context.Context, id string) error {
	rec, err := s.Directory(ctx)
	if err != nil {
		return err
	}
	if !contains(rec.IncidentList, id) {
		rec.IncidentList = append(rec.IncidentList, id)
	}
	rec.CurrentIncident = id
	return s.SaveDirectory(ctx, rec)
}

// RegisterCompany adds a company id to the known-company list (idempotently)
// and selects it as current.
func (s *Store) RegisterCompany(ctx context.Context, id string) error {
	rec, err := s.Directory(ctx)
	if err != nil {
		return err
	}
	if !contains(rec.CompanyList, id) {
		rec.CompanyList = append(rec.CompanyList, id)
	}
	rec.CurrentCompany = id
	return s.SaveDirectory(ctx, rec)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
