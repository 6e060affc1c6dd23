package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock database implementation for testing
type mockDatabase struct {
	db *sqlx.DB
}

func newMockDatabase(db *sql.DB) *mockDatabase {
	return &mockDatabase{db: sqlx.NewDb(db, "sqlmock")}
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Beginx() (*sqlx.Tx, error) {
	return m.db.Beginx()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

var personTestColumns = []string{
	"id", "organisation_id", "person_type", "first_name", "last_name", "email",
	"phone", "date_of_birth", "employee_reference", "photo_url", "user_id",
	"is_active", "created_at", "updated_at",
}

func personTestRow(id, orgID uuid.UUID, firstName, lastName string, email *string, createdAt time.Time) []driver.Value {
	return []driver.Value{
		id, orgID, "staff", firstName, lastName, email,
		nil, nil, nil, nil, nil,
		true, createdAt, createdAt,
	}
}

func TestGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPersonRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		personID := uuid.New()
		orgID := uuid.New()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id`).
			WithArgs(personID, orgID).
			WillReturnRows(sqlmock.NewRows(personTestColumns).
				AddRow(personTestRow(personID, orgID, "Jane", "Doe", nil, now)...))

		person, err := repo.GetByID(personID, orgID)
		require.NoError(t, err)
		require.NotNil(t, person)
		assert.Equal(t, personID, person.ID)
		assert.Equal(t, orgID, person.OrganisationID)
		assert.Equal(t, "Jane", person.FirstName)
		assert.True(t, person.IsActive)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		person, err := repo.GetByID(uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, person)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM persons WHERE id`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(fmt.Errorf("database error"))

		person, err := repo.GetByID(uuid.New(), uuid.New())
		assert.Error(t, err)
		assert.Nil(t, person)
		assert.Contains(t, err.Error(), "failed to fetch person")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPersonRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		personID := uuid.New()

		mock.ExpectExec(`UPDATE persons SET`).
			WithArgs("new@example.com", sqlmock.AnyArg(), personID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		affected, err := repo.UpdateFields(personID, map[string]interface{}{
			"email": "new@example.com",
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), affected)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Fields", func(t *testing.T) {
		_, err := repo.UpdateFields(uuid.New(), map[string]interface{}{})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no fields to update")
	})

	t.Run("Not Found", func(t *testing.T) {
		personID := uuid.New()

		mock.ExpectExec(`UPDATE persons SET`).
			WithArgs("x", sqlmock.AnyArg(), personID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		affected, err := repo.UpdateFields(personID, map[string]interface{}{"phone": "x"})
		require.NoError(t, err)
		assert.Equal(t, int64(0), affected)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeactivate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPersonRepository(newMockDatabase(db))

	t.Run("Success", func(t *testing.T) {
		personID := uuid.New()
		orgID := uuid.New()

		mock.ExpectExec(`UPDATE persons\s+SET is_active = false`).
			WithArgs(personID, orgID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		deactivated, err := repo.Deactivate(personID, orgID)
		require.NoError(t, err)
		assert.True(t, deactivated)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectExec(`UPDATE persons\s+SET is_active = false`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		deactivated, err := repo.Deactivate(uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.False(t, deactivated)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFindCandidates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPersonRepository(newMockDatabase(db))

	t.Run("Email Filter Matches Own Or Linked Email", func(t *testing.T) {
		orgID := uuid.New()
		email := "j@acme.com"
		now := time.Now()
		older := uuid.New()
		newer := uuid.New()

		mock.ExpectQuery(`FROM persons p\s+LEFT JOIN users u ON u\.id = p\.user_id`).
			WithArgs(orgID, email).
			WillReturnRows(sqlmock.NewRows(personTestColumns).
				AddRow(personTestRow(newer, orgID, "Jane", "Doe", &email, now)...).
				AddRow(personTestRow(older, orgID, "Jane", "Doe", &email, now.Add(-time.Hour))...))

		persons, err := repo.FindCandidates(orgID, &models.MatchQuery{Email: &email})
		require.NoError(t, err)
		require.Len(t, persons, 2)
		assert.Equal(t, newer, persons[0].ID)
		assert.Equal(t, older, persons[1].ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("All Signals Combined With AND", func(t *testing.T) {
		orgID := uuid.New()
		email := "j@acme.com"
		firstName := "Jane"
		lastName := "Doe"
		dob := time.Date(1990, 6, 1, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`AND \(p\.email = \$2 OR u\.email = \$2\) AND p\.first_name = \$3 AND p\.last_name = \$4 AND p\.date_of_birth = \$5`).
			WithArgs(orgID, email, firstName, lastName, dob).
			WillReturnRows(sqlmock.NewRows(personTestColumns))

		persons, err := repo.FindCandidates(orgID, &models.MatchQuery{
			Email:       &email,
			FirstName:   &firstName,
			LastName:    &lastName,
			DateOfBirth: &dob,
		})
		require.NoError(t, err)
		assert.Len(t, persons, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewPersonRepository(newMockDatabase(db))

	t.Run("No Profile Row Yet", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM employment_profiles WHERE person_id`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnError(sql.ErrNoRows)

		profile, err := repo.GetProfile(uuid.New())
		require.NoError(t, err)
		assert.Nil(t, profile)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success", func(t *testing.T) {
		personID := uuid.New()
		now := time.Now()
		jobTitle := "Care Assistant"

		mock.ExpectQuery(`SELECT (.+) FROM employment_profiles WHERE person_id`).
			WithArgs(personID).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "person_id", "job_title", "employment_start_date", "employment_end_date",
				"line_manager_id", "emergency_contact_name", "emergency_contact_phone",
				"address_line1", "city", "postcode", "annual_leave_balance", "notes",
				"created_at", "updated_at",
			}).AddRow(
				uuid.New(), personID, &jobTitle, nil, nil,
				nil, nil, nil,
				nil, nil, nil, nil, nil,
				now, now,
			))

		profile, err := repo.GetProfile(personID)
		require.NoError(t, err)
		require.NotNil(t, profile)
		assert.Equal(t, personID, profile.PersonID)
		require.NotNil(t, profile.JobTitle)
		assert.Equal(t, jobTitle, *profile.JobTitle)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
