package models

import (
	"time"

	"github.com/google/uuid"
)

// RelationshipType is advisory metadata on a relationship edge; it does not
// affect link/unlink/traversal behaviour.
type RelationshipType string

const (
	RelationshipPreviousEmployment RelationshipType = "previous_employment"
	RelationshipMerged             RelationshipType = "merged"
	RelationshipLinked             RelationshipType = "linked"
)

// PersonRelationship is an edge in an undirected graph over person records.
// Storage is directional (primary/linked) but the relationship is symmetric:
// every read matches both orientations.
type PersonRelationship struct {
	ID               uuid.UUID        `json:"id" db:"id"`
	OrganisationID   uuid.UUID        `json:"organisation_id" db:"organisation_id"`
	PrimaryPersonID  uuid.UUID        `json:"primary_person_id" db:"primary_person_id"`
	LinkedPersonID   uuid.UUID        `json:"linked_person_id" db:"linked_person_id"`
	RelationshipType RelationshipType `json:"relationship_type" db:"relationship_type"`
	LinkedBy         *uuid.UUID       `json:"linked_by,omitempty" db:"linked_by"`
	Notes            *string          `json:"notes,omitempty" db:"notes"`
	LinkedAt         time.Time        `json:"linked_at" db:"linked_at"`
}

// OtherEnd returns the endpoint that is not the given person id
func (r *PersonRelationship) OtherEnd(personID uuid.UUID) uuid.UUID {
	if r.PrimaryPersonID == personID {
		return r.LinkedPersonID
	}
	return r.PrimaryPersonID
}

// LinkInput represents input for linking two person records
type LinkInput struct {
	LinkedPersonID   uuid.UUID        `json:"linked_person_id" binding:"required"`
	RelationshipType RelationshipType `json:"relationship_type" binding:"required"`
	Notes            *string          `json:"notes"`
}
