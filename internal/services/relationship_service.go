package services

import (
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// AuditContext carries the operator attribution the surrounding layer
// supplies for audited identity operations
type AuditContext struct {
	PerformedBy *uuid.UUID
	IPAddress   *string
	DeviceType  *string
}

// RelationshipService owns the symmetric link graph between person records
type RelationshipService struct {
	persons       *database.PersonRepository
	relationships *database.RelationshipRepository
	audits        *database.MergeAuditRepository
	logger        *logrus.Logger
}

// NewRelationshipService creates a new RelationshipService
func NewRelationshipService(
	persons *database.PersonRepository,
	relationships *database.RelationshipRepository,
	audits *database.MergeAuditRepository,
	logger *logrus.Logger,
) *RelationshipService {
	return &RelationshipService{
		persons:       persons,
		relationships: relationships,
		audits:        audits,
		logger:        logger,
	}
}

// Link connects two person records within one organisation. Steps short-
// circuit on first failure: self-link rejected, both persons resolved under
// the organisation scope, duplicate edge rejected in either direction, then
// one edge row inserted. Check and insert run in one transaction.
func (s *RelationshipService) Link(
	organisationID, primaryPersonID, linkedPersonID uuid.UUID,
	relationshipType models.RelationshipType,
	notes *string,
	audit *AuditContext,
) (*models.PersonRelationship, error) {
	if primaryPersonID == linkedPersonID {
		return nil, ErrSelfLink
	}

	tx, err := s.relationships.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	primary, err := s.persons.GetByIDTx(tx, primaryPersonID, organisationID)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, ErrPersonNotFound
	}

	linked, err := s.persons.GetByIDTx(tx, linkedPersonID, organisationID)
	if err != nil {
		return nil, err
	}
	if linked == nil {
		return nil, ErrPersonNotFound
	}

	existing, err := s.relationships.GetEdgeTx(tx, organisationID, primaryPersonID, linkedPersonID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyLinked
	}

	rel := &models.PersonRelationship{
		OrganisationID:   organisationID,
		PrimaryPersonID:  primaryPersonID,
		LinkedPersonID:   linkedPersonID,
		RelationshipType: relationshipType,
		Notes:            notes,
	}
	if audit != nil {
		rel.LinkedBy = audit.PerformedBy
	}

	if err := s.relationships.InsertTx(tx, rel); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organisation_id":   organisationID,
		"primary_person_id": primaryPersonID,
		"linked_person_id":  linkedPersonID,
		"relationship_type": relationshipType,
	}).Info("Person records linked")

	s.recordAudit(models.AuditOperationLink, organisationID, primaryPersonID, linkedPersonID, notes, audit)
	return rel, nil
}

// Unlink removes the edge between two persons, matching either direction.
// Returns the number of edges removed; zero means the pair was already
// unlinked, which is not an error.
func (s *RelationshipService) Unlink(organisationID, personA, personB uuid.UUID, audit *AuditContext) (int64, error) {
	removed, err := s.relationships.DeleteEdge(organisationID, personA, personB)
	if err != nil {
		return 0, err
	}

	if removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"organisation_id": organisationID,
			"person_a":        personA,
			"person_b":        personB,
		}).Info("Person records unlinked")
		s.recordAudit(models.AuditOperationUnlink, organisationID, personA, personB, nil, audit)
	}
	return removed, nil
}

// DirectLinks returns the ids of persons directly joined by one edge to the
// given person. This is not the transitive closure: for a chain A-B-C,
// DirectLinks(A) returns only B.
func (s *RelationshipService) DirectLinks(personID, organisationID uuid.UUID) ([]uuid.UUID, error) {
	relationships, err := s.relationships.ListForPerson(personID, organisationID)
	if err != nil {
		return nil, err
	}

	seen := map[uuid.UUID]bool{}
	ids := []uuid.UUID{}
	for _, rel := range relationships {
		other := rel.OtherEnd(personID)
		if !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids, nil
}

// ListRelationships returns the raw edges touching a person, for display
func (s *RelationshipService) ListRelationships(personID, organisationID uuid.UUID) ([]*models.PersonRelationship, error) {
	return s.relationships.ListForPerson(personID, organisationID)
}

// recordAudit writes a best-effort audit row; link/unlink audits never fail
// the operation itself
func (s *RelationshipService) recordAudit(
	operation models.MergeAuditOperation,
	organisationID, targetID, sourceID uuid.UUID,
	notes *string,
	audit *AuditContext,
) {
	row := &models.MergeAudit{
		OrganisationID: organisationID,
		Operation:      operation,
		TargetPersonID: targetID,
		SourcePersonID: sourceID,
		Notes:          notes,
	}
	if audit != nil {
		row.PerformedBy = audit.PerformedBy
		row.IPAddress = audit.IPAddress
		row.DeviceType = audit.DeviceType
	}

	if err := s.audits.Insert(row); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"operation": operation,
			"target":    targetID,
			"source":    sourceID,
		}).Warn("Failed to record relationship audit")
	}
}
