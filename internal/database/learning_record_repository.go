package database

import (
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const learningRecordColumns = `
	id, organisation_id, person_id, title, record_type, source_system,
	status, is_mandatory, completion_date, expiry_date, created_at`

// LearningRecordRepository handles database operations for the
// learning_records table
type LearningRecordRepository struct {
	db DB
}

// NewLearningRecordRepository creates a new LearningRecordRepository
func NewLearningRecordRepository(db DB) *LearningRecordRepository {
	return &LearningRecordRepository{db: db}
}

// Create inserts a learning record. Records attach to exactly one person and
// are never reassigned.
func (r *LearningRecordRepository) Create(record *models.LearningRecord) error {
	query := `
		INSERT INTO learning_records (
			organisation_id, person_id, title, record_type, source_system,
			status, is_mandatory, completion_date, expiry_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRow(
		query,
		record.OrganisationID,
		record.PersonID,
		record.Title,
		record.RecordType,
		record.SourceSystem,
		record.Status,
		record.IsMandatory,
		record.CompletionDate,
		record.ExpiryDate,
	).Scan(&record.ID, &record.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert learning record: %w", err)
	}
	return nil
}

// ListByPersonIDs retrieves learning records owned by any of the given
// persons, applying the caller-supplied filters uniformly across the set.
// Ordered by completion date descending, then creation time descending.
func (r *LearningRecordRepository) ListByPersonIDs(organisationID uuid.UUID, personIDs []uuid.UUID, filter *models.LearningRecordFilter) ([]*models.LearningRecord, error) {
	if len(personIDs) == 0 {
		return []*models.LearningRecord{}, nil
	}

	ids := make([]string, 0, len(personIDs))
	for _, id := range personIDs {
		ids = append(ids, id.String())
	}

	query := `SELECT ` + learningRecordColumns + `
		FROM learning_records
		WHERE organisation_id = $1 AND person_id = ANY($2)`
	args := []interface{}{organisationID, pq.Array(ids)}
	argPos := 3

	if filter != nil {
		if filter.RecordType != nil {
			query += fmt.Sprintf(" AND record_type = $%d", argPos)
			args = append(args, *filter.RecordType)
			argPos++
		}
		if filter.SourceSystem != nil {
			query += fmt.Sprintf(" AND source_system = $%d", argPos)
			args = append(args, *filter.SourceSystem)
			argPos++
		}
		if filter.Status != nil {
			query += fmt.Sprintf(" AND status = $%d", argPos)
			args = append(args, *filter.Status)
			argPos++
		}
		if filter.IsMandatory != nil {
			query += fmt.Sprintf(" AND is_mandatory = $%d", argPos)
			args = append(args, *filter.IsMandatory)
			argPos++
		}
	}

	query += " ORDER BY completion_date DESC NULLS LAST, created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list learning records: %w", err)
	}
	defer rows.Close()

	records := []*models.LearningRecord{}
	for rows.Next() {
		rec := &models.LearningRecord{}
		err := rows.Scan(
			&rec.ID, &rec.OrganisationID, &rec.PersonID, &rec.Title, &rec.RecordType,
			&rec.SourceSystem, &rec.Status, &rec.IsMandatory, &rec.CompletionDate,
			&rec.ExpiryDate, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}
