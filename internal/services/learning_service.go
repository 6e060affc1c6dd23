package services

import (
	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// LearningService aggregates learning/qualification history across a person's
// linked set. Each surfaced record keeps its true originating person id.
type LearningService struct {
	persons       *database.PersonRepository
	relationships *database.RelationshipRepository
	records       *database.LearningRecordRepository
	logger        *logrus.Logger
}

// NewLearningService creates a new LearningService
func NewLearningService(
	persons *database.PersonRepository,
	relationships *database.RelationshipRepository,
	records *database.LearningRecordRepository,
	logger *logrus.Logger,
) *LearningService {
	return &LearningService{
		persons:       persons,
		relationships: relationships,
		records:       records,
		logger:        logger,
	}
}

// LearningRecordsFor returns the unioned learning history of the person and
// every directly linked person (one hop, matching the graph's non-transitive
// contract), with caller filters applied uniformly across the whole set.
// Records owned by a linked person are tagged is_from_linked_record.
func (s *LearningService) LearningRecordsFor(personID, organisationID uuid.UUID, filter *models.LearningRecordFilter) ([]*models.AggregatedLearningRecord, error) {
	person, err := s.persons.GetByID(personID, organisationID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, ErrPersonNotFound
	}

	relationships, err := s.relationships.ListForPerson(personID, organisationID)
	if err != nil {
		return nil, err
	}

	closure := []uuid.UUID{personID}
	seen := map[uuid.UUID]bool{personID: true}
	for _, rel := range relationships {
		other := rel.OtherEnd(personID)
		if !seen[other] {
			seen[other] = true
			closure = append(closure, other)
		}
	}

	records, err := s.records.ListByPersonIDs(organisationID, closure, filter)
	if err != nil {
		return nil, err
	}

	aggregated := make([]*models.AggregatedLearningRecord, 0, len(records))
	for _, rec := range records {
		aggregated = append(aggregated, &models.AggregatedLearningRecord{
			LearningRecord:     *rec,
			IsFromLinkedRecord: rec.PersonID != personID,
		})
	}

	s.logger.WithFields(logrus.Fields{
		"person_id":    personID,
		"closure_size": len(closure),
		"records":      len(aggregated),
	}).Debug("Learning records aggregated")

	return aggregated, nil
}

// CreateLearningRecord records a learning fact against one person. The record
// stays attributed to that person forever, even when surfaced through a
// linked person's aggregated view.
func (s *LearningService) CreateLearningRecord(organisationID uuid.UUID, input *models.CreateLearningRecordInput) (*models.LearningRecord, error) {
	person, err := s.persons.GetByID(input.PersonID, organisationID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, ErrPersonNotFound
	}

	status := input.Status
	if status == "" {
		status = models.LearningStatusCompleted
	}

	record := &models.LearningRecord{
		OrganisationID: organisationID,
		PersonID:       input.PersonID,
		Title:          input.Title,
		RecordType:     input.RecordType,
		SourceSystem:   input.SourceSystem,
		Status:         status,
		IsMandatory:    input.IsMandatory,
		CompletionDate: input.CompletionDate,
		ExpiryDate:     input.ExpiryDate,
	}

	if err := s.records.Create(record); err != nil {
		return nil, err
	}
	return record, nil
}
