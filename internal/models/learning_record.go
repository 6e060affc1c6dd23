package models

import (
	"time"

	"github.com/google/uuid"
)

// LearningRecordType classifies a learning/qualification record
type LearningRecordType string

const (
	LearningTypeQualification LearningRecordType = "qualification"
	LearningTypeCourse        LearningRecordType = "course"
	LearningTypeCertification LearningRecordType = "certification"
)

// LearningRecordStatus represents completion state
type LearningRecordStatus string

const (
	LearningStatusInProgress LearningRecordStatus = "in_progress"
	LearningStatusCompleted  LearningRecordStatus = "completed"
	LearningStatusExpired    LearningRecordStatus = "expired"
)

// LearningRecord is a qualification/course/certification fact attached to
// exactly one person at creation time and never reassigned.
type LearningRecord struct {
	ID             uuid.UUID            `json:"id" db:"id"`
	OrganisationID uuid.UUID            `json:"organisation_id" db:"organisation_id"`
	PersonID       uuid.UUID            `json:"person_id" db:"person_id"`
	Title          string               `json:"title" db:"title"`
	RecordType     LearningRecordType   `json:"record_type" db:"record_type"`
	SourceSystem   *string              `json:"source_system,omitempty" db:"source_system"`
	Status         LearningRecordStatus `json:"status" db:"status"`
	IsMandatory    bool                 `json:"is_mandatory" db:"is_mandatory"`
	CompletionDate *time.Time           `json:"completion_date,omitempty" db:"completion_date"`
	ExpiryDate     *time.Time           `json:"expiry_date,omitempty" db:"expiry_date"`
	CreatedAt      time.Time            `json:"created_at" db:"created_at"`
}

// AggregatedLearningRecord is a learning record surfaced through another
// person's aggregated view. IsFromLinkedRecord is true when the record belongs
// to a linked person rather than the person queried; PersonID always keeps the
// record's true origin.
type AggregatedLearningRecord struct {
	LearningRecord
	IsFromLinkedRecord bool `json:"is_from_linked_record"`
}

// LearningRecordFilter narrows an aggregated learning history query.
// Nil fields do not filter.
type LearningRecordFilter struct {
	RecordType   *LearningRecordType   `json:"record_type" form:"record_type"`
	SourceSystem *string               `json:"source_system" form:"source_system"`
	Status       *LearningRecordStatus `json:"status" form:"status"`
	IsMandatory  *bool                 `json:"is_mandatory" form:"is_mandatory"`
}

// CreateLearningRecordInput represents input for recording a learning fact
type CreateLearningRecordInput struct {
	PersonID       uuid.UUID            `json:"person_id" binding:"required"`
	Title          string               `json:"title" binding:"required"`
	RecordType     LearningRecordType   `json:"record_type" binding:"required"`
	SourceSystem   *string              `json:"source_system"`
	Status         LearningRecordStatus `json:"status"`
	IsMandatory    bool                 `json:"is_mandatory"`
	CompletionDate *time.Time           `json:"completion_date"`
	ExpiryDate     *time.Time           `json:"expiry_date"`
}
