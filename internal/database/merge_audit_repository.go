package database

import (
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// MergeAuditRepository handles database operations for the merge_audits table
type MergeAuditRepository struct {
	db DB
}

// NewMergeAuditRepository creates a new MergeAuditRepository
func NewMergeAuditRepository(db DB) *MergeAuditRepository {
	return &MergeAuditRepository{db: db}
}

// Insert records an audited identity operation
func (r *MergeAuditRepository) Insert(audit *models.MergeAudit) error {
	return r.insert(r.db, audit)
}

// InsertTx is Insert inside an open transaction. Merges write their audit row
// in the same transaction as the merge itself.
func (r *MergeAuditRepository) InsertTx(tx *sqlx.Tx, audit *models.MergeAudit) error {
	return r.insert(tx, audit)
}

func (r *MergeAuditRepository) insert(q queryer, audit *models.MergeAudit) error {
	query := `
		INSERT INTO merge_audits (
			organisation_id, operation, target_person_id, source_person_id,
			performed_by, notes, ip_address, device_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := q.QueryRow(
		query,
		audit.OrganisationID,
		audit.Operation,
		audit.TargetPersonID,
		audit.SourcePersonID,
		audit.PerformedBy,
		audit.Notes,
		audit.IPAddress,
		audit.DeviceType,
	).Scan(&audit.ID, &audit.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert merge audit: %w", err)
	}
	return nil
}

// ListByPerson retrieves audit rows where the person was target or source
func (r *MergeAuditRepository) ListByPerson(personID, organisationID uuid.UUID) ([]*models.MergeAudit, error) {
	query := `
		SELECT id, organisation_id, operation, target_person_id, source_person_id,
		       performed_by, notes, ip_address, device_type, created_at
		FROM merge_audits
		WHERE organisation_id = $1
		  AND (target_person_id = $2 OR source_person_id = $2)
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, organisationID, personID)
	if err != nil {
		return nil, fmt.Errorf("failed to list merge audits: %w", err)
	}
	defer rows.Close()

	audits := []*models.MergeAudit{}
	for rows.Next() {
		a := &models.MergeAudit{}
		err := rows.Scan(
			&a.ID, &a.OrganisationID, &a.Operation, &a.TargetPersonID, &a.SourcePersonID,
			&a.PerformedBy, &a.Notes, &a.IPAddress, &a.DeviceType, &a.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		audits = append(audits, a)
	}

	return audits, rows.Err()
}
