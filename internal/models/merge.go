package models

import (
	"time"

	"github.com/google/uuid"
)

// MergeAuditOperation identifies the audited identity operation
type MergeAuditOperation string

const (
	AuditOperationMerge  MergeAuditOperation = "merge"
	AuditOperationLink   MergeAuditOperation = "link"
	AuditOperationUnlink MergeAuditOperation = "unlink"
)

// MergeAudit records who consolidated or linked which person records.
// Merges are destructive, so the audit row is the only surviving trace of the
// source record's id.
type MergeAudit struct {
	ID             uuid.UUID           `json:"id" db:"id"`
	OrganisationID uuid.UUID           `json:"organisation_id" db:"organisation_id"`
	Operation      MergeAuditOperation `json:"operation" db:"operation"`
	TargetPersonID uuid.UUID           `json:"target_person_id" db:"target_person_id"`
	SourcePersonID uuid.UUID           `json:"source_person_id" db:"source_person_id"`
	PerformedBy    *uuid.UUID          `json:"performed_by,omitempty" db:"performed_by"`
	Notes          *string             `json:"notes,omitempty" db:"notes"`
	IPAddress      *string             `json:"ip_address,omitempty" db:"ip_address"`
	DeviceType     *string             `json:"device_type,omitempty" db:"device_type"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"`
}

// MatchQuery carries the optional signals used to find duplicate candidates.
// Absent signals neither filter nor score.
type MatchQuery struct {
	Email       *string    `json:"email" form:"email"`
	FirstName   *string    `json:"first_name" form:"first_name"`
	LastName    *string    `json:"last_name" form:"last_name"`
	DateOfBirth *time.Time `json:"date_of_birth" form:"date_of_birth" time_format:"2006-01-02"`
}

// MatchCandidate is a person scored as a probable duplicate
type MatchCandidate struct {
	Person Person `json:"person"`
	Score  int    `json:"score"`
}
