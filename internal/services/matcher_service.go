package services

import (
	"sort"

	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Signal weights for duplicate scoring. Additive, not probabilistic, so an
// operator can see exactly why a candidate ranked where it did.
const (
	matchWeightEmail       = 10
	matchWeightName        = 5
	matchWeightDateOfBirth = 8
)

// MatcherService scores and ranks existing persons as probable duplicates of
// a not-yet-linked record. Supplied signals are combined with logical AND at
// the filter level: a candidate must satisfy every supplied criterion to
// appear at all; the weight sum then ranks the surviving set.
type MatcherService struct {
	persons *database.PersonRepository
	logger  *logrus.Logger
}

// NewMatcherService creates a new MatcherService
func NewMatcherService(persons *database.PersonRepository, logger *logrus.Logger) *MatcherService {
	return &MatcherService{persons: persons, logger: logger}
}

// FindPotentialMatches returns scored duplicate candidates, sorted by score
// descending then creation time descending. The name signal only counts when
// both first and last name are supplied. No supplied signals yields an empty
// result, not an error.
func (s *MatcherService) FindPotentialMatches(organisationID uuid.UUID, query *models.MatchQuery) ([]*models.MatchCandidate, error) {
	nameSupplied := query.FirstName != nil && query.LastName != nil
	if query.Email == nil && !nameSupplied && query.DateOfBirth == nil {
		return []*models.MatchCandidate{}, nil
	}

	persons, err := s.persons.FindCandidates(organisationID, query)
	if err != nil {
		return nil, err
	}

	score := 0
	if query.Email != nil {
		score += matchWeightEmail
	}
	if nameSupplied {
		score += matchWeightName
	}
	if query.DateOfBirth != nil {
		score += matchWeightDateOfBirth
	}

	candidates := make([]*models.MatchCandidate, 0, len(persons))
	for _, person := range persons {
		candidates = append(candidates, &models.MatchCandidate{
			Person: *person,
			Score:  score,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Person.CreatedAt.After(candidates[j].Person.CreatedAt)
	})

	s.logger.WithFields(logrus.Fields{
		"organisation_id": organisationID,
		"candidates":      len(candidates),
	}).Debug("Duplicate match query completed")

	return candidates, nil
}
