package services

import (
	"database/sql"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// Mock database implementation backed by sqlmock
type mockDB struct {
	db *sqlx.DB
}

func newTestDB(t *testing.T) (*mockDB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &mockDB{db: sqlx.NewDb(db, "sqlmock")}, mock
}

func (m *mockDB) Get(dest interface{}, query string, args ...interface{}) error {
	return m.db.Get(dest, query, args...)
}

func (m *mockDB) Select(dest interface{}, query string, args ...interface{}) error {
	return m.db.Select(dest, query, args...)
}

func (m *mockDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDB) Beginx() (*sqlx.Tx, error) {
	return m.db.Beginx()
}

func (m *mockDB) Ping() error {
	return m.db.Ping()
}

func (m *mockDB) Close() error {
	return m.db.Close()
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var personColumns = []string{
	"id", "organisation_id", "person_type", "first_name", "last_name", "email",
	"phone", "date_of_birth", "employee_reference", "photo_url", "user_id",
	"is_active", "created_at", "updated_at",
}

func personRows(persons ...*models.Person) *sqlmock.Rows {
	rows := sqlmock.NewRows(personColumns)
	for _, p := range persons {
		rows.AddRow(
			p.ID, p.OrganisationID, p.PersonType, p.FirstName, p.LastName, p.Email,
			p.Phone, p.DateOfBirth, p.EmployeeReference, p.PhotoURL, p.UserID,
			p.IsActive, p.CreatedAt, p.UpdatedAt,
		)
	}
	return rows
}
