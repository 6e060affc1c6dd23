package database

import (
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UnitMembershipRepository handles database operations for the
// unit_memberships table
type UnitMembershipRepository struct {
	db DB
}

// NewUnitMembershipRepository creates a new UnitMembershipRepository
func NewUnitMembershipRepository(db DB) *UnitMembershipRepository {
	return &UnitMembershipRepository{db: db}
}

// ListByPerson retrieves all unit memberships held by a person
func (r *UnitMembershipRepository) ListByPerson(personID uuid.UUID) ([]*models.UnitMembership, error) {
	return r.listByPerson(r.db, personID)
}

// ListByPersonTx is ListByPerson inside an open transaction
func (r *UnitMembershipRepository) ListByPersonTx(tx *sqlx.Tx, personID uuid.UUID) ([]*models.UnitMembership, error) {
	return r.listByPerson(tx, personID)
}

func (r *UnitMembershipRepository) listByPerson(q queryer, personID uuid.UUID) ([]*models.UnitMembership, error) {
	query := `
		SELECT id, person_id, unit_id, role, created_at
		FROM unit_memberships
		WHERE person_id = $1
		ORDER BY created_at ASC`

	rows, err := q.Query(query, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unit memberships: %w", err)
	}
	defer rows.Close()

	memberships := []*models.UnitMembership{}
	for rows.Next() {
		m := &models.UnitMembership{}
		if err := rows.Scan(&m.ID, &m.PersonID, &m.UnitID, &m.Role, &m.CreatedAt); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}

	return memberships, rows.Err()
}

// InsertTx assigns a person to a unit
func (r *UnitMembershipRepository) InsertTx(tx *sqlx.Tx, membership *models.UnitMembership) error {
	query := `
		INSERT INTO unit_memberships (person_id, unit_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := tx.QueryRow(query, membership.PersonID, membership.UnitID, membership.Role).
		Scan(&membership.ID, &membership.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert unit membership: %w", err)
	}
	return nil
}

// DeleteAllForPersonTx removes every unit membership held by a person
func (r *UnitMembershipRepository) DeleteAllForPersonTx(tx *sqlx.Tx, personID uuid.UUID) (int64, error) {
	result, err := tx.Exec(`DELETE FROM unit_memberships WHERE person_id = $1`, personID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete unit memberships: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}
