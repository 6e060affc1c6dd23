package services

import (
	"testing"
	"time"

	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatcherService(db database.DB) *MatcherService {
	return NewMatcherService(database.NewPersonRepository(db), testLogger())
}

func TestFindPotentialMatches(t *testing.T) {
	orgID := uuid.New()

	t.Run("No Signals Yields Empty Result", func(t *testing.T) {
		db, mock := newTestDB(t)
		svc := newMatcherService(db)

		candidates, err := svc.FindPotentialMatches(orgID, &models.MatchQuery{})
		require.NoError(t, err)
		assert.Empty(t, candidates)

		// No query hit the database
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("First Name Alone Is Not A Name Signal", func(t *testing.T) {
		db, mock := newTestDB(t)
		svc := newMatcherService(db)

		firstName := "Jane"
		candidates, err := svc.FindPotentialMatches(orgID, &models.MatchQuery{FirstName: &firstName})
		require.NoError(t, err)
		assert.Empty(t, candidates)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Email Signal Scores Ten Newest First", func(t *testing.T) {
		db, mock := newTestDB(t)
		svc := newMatcherService(db)

		email := "jane.doe@acme.org"
		now := time.Now()

		newer := stubPerson(uuid.New(), orgID)
		newer.Email = &email
		newer.CreatedAt = now
		older := stubPerson(uuid.New(), orgID)
		older.Email = &email
		older.CreatedAt = now.Add(-time.Hour)

		mock.ExpectQuery(`FROM persons p\s+LEFT JOIN users u`).
			WithArgs(orgID, email).
			WillReturnRows(personRows(newer, older))

		candidates, err := svc.FindPotentialMatches(orgID, &models.MatchQuery{Email: &email})
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Equal(t, 10, candidates[0].Score)
		assert.Equal(t, 10, candidates[1].Score)
		assert.Equal(t, newer.ID, candidates[0].Person.ID)
		assert.Equal(t, older.ID, candidates[1].Person.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("All Signals Sum To Twenty Three", func(t *testing.T) {
		db, mock := newTestDB(t)
		svc := newMatcherService(db)

		email := "jane.doe@acme.org"
		firstName := "Jane"
		lastName := "Doe"
		dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)

		match := stubPerson(uuid.New(), orgID)
		match.Email = &email
		match.DateOfBirth = &dob

		mock.ExpectQuery(`FROM persons p\s+LEFT JOIN users u`).
			WithArgs(orgID, email, firstName, lastName, dob).
			WillReturnRows(personRows(match))

		candidates, err := svc.FindPotentialMatches(orgID, &models.MatchQuery{
			Email:       &email,
			FirstName:   &firstName,
			LastName:    &lastName,
			DateOfBirth: &dob,
		})
		require.NoError(t, err)
		require.Len(t, candidates, 1)
		assert.Equal(t, 23, candidates[0].Score)
		assert.Equal(t, match.ID, candidates[0].Person.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
