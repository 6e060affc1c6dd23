package database

import (
	"database/sql"
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const relationshipColumns = `
	id, organisation_id, primary_person_id, linked_person_id,
	relationship_type, linked_by, notes, linked_at`

// RelationshipRepository handles database operations for the
// person_relationships table. One row is stored per unordered pair; every
// read matches both orientations.
type RelationshipRepository struct {
	db DB
}

// NewRelationshipRepository creates a new RelationshipRepository
func NewRelationshipRepository(db DB) *RelationshipRepository {
	return &RelationshipRepository{db: db}
}

// BeginTx starts a new transaction
func (r *RelationshipRepository) BeginTx() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

func scanRelationship(row rowScanner) (*models.PersonRelationship, error) {
	rel := &models.PersonRelationship{}
	err := row.Scan(
		&rel.ID, &rel.OrganisationID, &rel.PrimaryPersonID, &rel.LinkedPersonID,
		&rel.RelationshipType, &rel.LinkedBy, &rel.Notes, &rel.LinkedAt,
	)
	if err != nil {
		return nil, err
	}
	return rel, nil
}

// GetEdgeTx finds the edge between two persons in either direction.
// Returns (nil, nil) when no edge exists.
func (r *RelationshipRepository) GetEdgeTx(tx *sqlx.Tx, organisationID, personA, personB uuid.UUID) (*models.PersonRelationship, error) {
	query := `SELECT ` + relationshipColumns + `
		FROM person_relationships
		WHERE organisation_id = $1
		  AND ((primary_person_id = $2 AND linked_person_id = $3)
		    OR (primary_person_id = $3 AND linked_person_id = $2))
		LIMIT 1`

	rel, err := scanRelationship(tx.QueryRow(query, organisationID, personA, personB))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch relationship: %w", err)
	}
	return rel, nil
}

// InsertTx inserts one edge row for the pair
func (r *RelationshipRepository) InsertTx(tx *sqlx.Tx, rel *models.PersonRelationship) error {
	query := `
		INSERT INTO person_relationships (
			organisation_id, primary_person_id, linked_person_id,
			relationship_type, linked_by, notes
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, linked_at`

	err := tx.QueryRow(
		query,
		rel.OrganisationID,
		rel.PrimaryPersonID,
		rel.LinkedPersonID,
		rel.RelationshipType,
		rel.LinkedBy,
		rel.Notes,
	).Scan(&rel.ID, &rel.LinkedAt)

	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

// DeleteEdge removes the edge between two persons, matching either direction.
// Returns the number of rows removed so callers can distinguish "already
// unlinked" from "successfully unlinked".
func (r *RelationshipRepository) DeleteEdge(organisationID, personA, personB uuid.UUID) (int64, error) {
	query := `
		DELETE FROM person_relationships
		WHERE organisation_id = $1
		  AND ((primary_person_id = $2 AND linked_person_id = $3)
		    OR (primary_person_id = $3 AND linked_person_id = $2))`

	result, err := r.db.Exec(query, organisationID, personA, personB)
	if err != nil {
		return 0, fmt.Errorf("failed to delete relationship: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// ListForPerson returns every edge touching the given person, in either
// orientation. This is one hop only, not the transitive closure: chains like
// A-B, B-C are representable in storage but B's neighbours are just A and C.
func (r *RelationshipRepository) ListForPerson(personID, organisationID uuid.UUID) ([]*models.PersonRelationship, error) {
	query := `SELECT ` + relationshipColumns + `
		FROM person_relationships
		WHERE organisation_id = $1
		  AND (primary_person_id = $2 OR linked_person_id = $2)
		ORDER BY linked_at DESC`

	rows, err := r.db.Query(query, organisationID, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	relationships := []*models.PersonRelationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, rel)
	}

	return relationships, rows.Err()
}

// DeleteAllForPersonTx removes every edge touching the given person. Used by
// the merge engine when the losing record is deleted; its edges are discarded,
// not re-pointed at the survivor.
func (r *RelationshipRepository) DeleteAllForPersonTx(tx *sqlx.Tx, personID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM person_relationships
		WHERE primary_person_id = $1 OR linked_person_id = $1`

	result, err := tx.Exec(query, personID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete relationships: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}
