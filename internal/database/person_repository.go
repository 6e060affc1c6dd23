package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// personColumns is the canonical column list for persons reads
const personColumns = `
	id, organisation_id, person_type, first_name, last_name, email, phone,
	date_of_birth, employee_reference, photo_url, user_id, is_active,
	created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// PersonRepository handles database operations for the persons and
// employment_profiles tables
type PersonRepository struct {
	db DB
}

// NewPersonRepository creates a new PersonRepository
func NewPersonRepository(db DB) *PersonRepository {
	return &PersonRepository{db: db}
}

// BeginTx starts a new transaction
func (r *PersonRepository) BeginTx() (*sqlx.Tx, error) {
	return r.db.Beginx()
}

func scanPerson(row rowScanner) (*models.Person, error) {
	p := &models.Person{}
	err := row.Scan(
		&p.ID, &p.OrganisationID, &p.PersonType, &p.FirstName, &p.LastName,
		&p.Email, &p.Phone, &p.DateOfBirth, &p.EmployeeReference, &p.PhotoURL,
		&p.UserID, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a person by id within an organisation scope.
// Returns (nil, nil) when no row matches, so a cross-tenant id probe is
// indistinguishable from a nonexistent one.
func (r *PersonRepository) GetByID(personID, organisationID uuid.UUID) (*models.Person, error) {
	return r.getByID(r.db, personID, organisationID, false)
}

// GetByIDTx is GetByID inside an open transaction, locking the row FOR UPDATE
func (r *PersonRepository) GetByIDTx(tx *sqlx.Tx, personID, organisationID uuid.UUID) (*models.Person, error) {
	return r.getByID(tx, personID, organisationID, true)
}

func (r *PersonRepository) getByID(q queryer, personID, organisationID uuid.UUID, forUpdate bool) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM persons WHERE id = $1 AND organisation_id = $2`
	if forUpdate {
		query += " FOR UPDATE"
	}

	person, err := scanPerson(q.QueryRow(query, personID, organisationID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch person: %w", err)
	}
	return person, nil
}

// GetByUserIDTx retrieves the person holding the given external user reference
// within an organisation
func (r *PersonRepository) GetByUserIDTx(tx *sqlx.Tx, organisationID, userID uuid.UUID) (*models.Person, error) {
	query := `SELECT ` + personColumns + `
		FROM persons
		WHERE organisation_id = $1 AND user_id = $2
		ORDER BY created_at ASC
		LIMIT 1`

	person, err := scanPerson(tx.QueryRow(query, organisationID, userID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch person by user id: %w", err)
	}
	return person, nil
}

// GetByOwnOrLinkedEmailTx retrieves a staff person whose own email, or the
// email of their linked user account, equals the supplied email
func (r *PersonRepository) GetByOwnOrLinkedEmailTx(tx *sqlx.Tx, organisationID uuid.UUID, email string) (*models.Person, error) {
	query := `SELECT
			p.id, p.organisation_id, p.person_type, p.first_name, p.last_name,
			p.email, p.phone, p.date_of_birth, p.employee_reference, p.photo_url,
			p.user_id, p.is_active, p.created_at, p.updated_at
		FROM persons p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.organisation_id = $1
		  AND p.person_type = 'staff'
		  AND (p.email = $2 OR u.email = $2)
		ORDER BY p.created_at ASC
		LIMIT 1`

	person, err := scanPerson(tx.QueryRow(query, organisationID, email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch person by email: %w", err)
	}
	return person, nil
}

// InsertTx inserts a new person row
func (r *PersonRepository) InsertTx(tx *sqlx.Tx, person *models.Person) error {
	query := `
		INSERT INTO persons (
			organisation_id, person_type, first_name, last_name, email, phone,
			date_of_birth, employee_reference, photo_url, user_id, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := tx.QueryRow(
		query,
		person.OrganisationID,
		person.PersonType,
		person.FirstName,
		person.LastName,
		person.Email,
		person.Phone,
		person.DateOfBirth,
		person.EmployeeReference,
		person.PhotoURL,
		person.UserID,
		person.IsActive,
	).Scan(&person.ID, &person.CreatedAt, &person.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert person: %w", err)
	}
	return nil
}

// UpdateFields updates specific person columns. Returns the number of rows
// affected so callers can distinguish not-found from success.
func (r *PersonRepository) UpdateFields(personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	return r.updateFields(r.db, personID, fields)
}

// UpdateFieldsTx is UpdateFields inside an open transaction
func (r *PersonRepository) UpdateFieldsTx(tx *sqlx.Tx, personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	return r.updateFields(tx, personID, fields)
}

func (r *PersonRepository) updateFields(q queryer, personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("no fields to update")
	}

	// Build dynamic query
	query := "UPDATE persons SET "
	args := []interface{}{}
	argPos := 1

	for field, value := range fields {
		if argPos > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", field, argPos)
		args = append(args, value)
		argPos++
	}

	query += fmt.Sprintf(", updated_at = $%d", argPos)
	args = append(args, time.Now())
	argPos++

	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, personID)

	result, err := q.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update person: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// Deactivate flips is_active to false. Does not cascade to edges or child
// records. Returns whether a row was deactivated.
func (r *PersonRepository) Deactivate(personID, organisationID uuid.UUID) (bool, error) {
	query := `
		UPDATE persons
		SET is_active = false, updated_at = NOW()
		WHERE id = $1 AND organisation_id = $2`

	result, err := r.db.Exec(query, personID, organisationID)
	if err != nil {
		return false, fmt.Errorf("failed to deactivate person: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected > 0, nil
}

// DeleteTx hard-deletes a person row. Only the merge engine calls this; the
// schema cascades the remaining child rows.
func (r *PersonRepository) DeleteTx(tx *sqlx.Tx, personID uuid.UUID) error {
	_, err := tx.Exec(`DELETE FROM persons WHERE id = $1`, personID)
	if err != nil {
		return fmt.Errorf("failed to delete person: %w", err)
	}
	return nil
}

// profileColumns is the canonical column list for employment_profiles reads
const profileColumns = `
	id, person_id, job_title, employment_start_date, employment_end_date,
	line_manager_id, emergency_contact_name, emergency_contact_phone,
	address_line1, city, postcode, annual_leave_balance, notes,
	created_at, updated_at`

func scanProfile(row rowScanner) (*models.EmploymentProfile, error) {
	p := &models.EmploymentProfile{}
	err := row.Scan(
		&p.ID, &p.PersonID, &p.JobTitle, &p.EmploymentStartDate, &p.EmploymentEndDate,
		&p.LineManagerID, &p.EmergencyContactName, &p.EmergencyContactPhone,
		&p.AddressLine1, &p.City, &p.Postcode, &p.AnnualLeaveBalance, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile retrieves the employment profile extension for a person.
// Returns (nil, nil) when the person has no profile row yet.
func (r *PersonRepository) GetProfile(personID uuid.UUID) (*models.EmploymentProfile, error) {
	return r.getProfile(r.db, personID)
}

// GetProfileTx is GetProfile inside an open transaction
func (r *PersonRepository) GetProfileTx(tx *sqlx.Tx, personID uuid.UUID) (*models.EmploymentProfile, error) {
	return r.getProfile(tx, personID)
}

func (r *PersonRepository) getProfile(q queryer, personID uuid.UUID) (*models.EmploymentProfile, error) {
	query := `SELECT ` + profileColumns + ` FROM employment_profiles WHERE person_id = $1`

	profile, err := scanProfile(q.QueryRow(query, personID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch employment profile: %w", err)
	}
	return profile, nil
}

// InsertProfile creates the employment profile row for a person
func (r *PersonRepository) InsertProfile(profile *models.EmploymentProfile) error {
	return r.insertProfile(r.db, profile)
}

// InsertProfileTx is InsertProfile inside an open transaction
func (r *PersonRepository) InsertProfileTx(tx *sqlx.Tx, profile *models.EmploymentProfile) error {
	return r.insertProfile(tx, profile)
}

func (r *PersonRepository) insertProfile(q queryer, profile *models.EmploymentProfile) error {
	query := `
		INSERT INTO employment_profiles (
			person_id, job_title, employment_start_date, employment_end_date,
			line_manager_id, emergency_contact_name, emergency_contact_phone,
			address_line1, city, postcode, annual_leave_balance, notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := q.QueryRow(
		query,
		profile.PersonID,
		profile.JobTitle,
		profile.EmploymentStartDate,
		profile.EmploymentEndDate,
		profile.LineManagerID,
		profile.EmergencyContactName,
		profile.EmergencyContactPhone,
		profile.AddressLine1,
		profile.City,
		profile.Postcode,
		profile.AnnualLeaveBalance,
		profile.Notes,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert employment profile: %w", err)
	}
	return nil
}

// UpdateProfileFields updates specific employment profile columns
func (r *PersonRepository) UpdateProfileFields(personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	return r.updateProfileFields(r.db, personID, fields)
}

// UpdateProfileFieldsTx is UpdateProfileFields inside an open transaction
func (r *PersonRepository) UpdateProfileFieldsTx(tx *sqlx.Tx, personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	return r.updateProfileFields(tx, personID, fields)
}

func (r *PersonRepository) updateProfileFields(q queryer, personID uuid.UUID, fields map[string]interface{}) (int64, error) {
	if len(fields) == 0 {
		return 0, fmt.Errorf("no fields to update")
	}

	query := "UPDATE employment_profiles SET "
	args := []interface{}{}
	argPos := 1

	for field, value := range fields {
		if argPos > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", field, argPos)
		args = append(args, value)
		argPos++
	}

	query += fmt.Sprintf(", updated_at = $%d", argPos)
	args = append(args, time.Now())
	argPos++

	query += fmt.Sprintf(" WHERE person_id = $%d", argPos)
	args = append(args, personID)

	result, err := q.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to update employment profile: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	return rowsAffected, nil
}

// FindCandidates returns staff persons satisfying every supplied match
// signal. Absent signals neither filter nor score; the name signal requires
// both first and last name. Email matches the person's own email or their
// linked user account's email. Newest candidates first.
func (r *PersonRepository) FindCandidates(organisationID uuid.UUID, match *models.MatchQuery) ([]*models.Person, error) {
	query := `SELECT
			p.id, p.organisation_id, p.person_type, p.first_name, p.last_name,
			p.email, p.phone, p.date_of_birth, p.employee_reference, p.photo_url,
			p.user_id, p.is_active, p.created_at, p.updated_at
		FROM persons p
		LEFT JOIN users u ON u.id = p.user_id
		WHERE p.organisation_id = $1
		  AND p.person_type = 'staff'`
	args := []interface{}{organisationID}
	argPos := 2

	if match.Email != nil {
		query += fmt.Sprintf(" AND (p.email = $%d OR u.email = $%d)", argPos, argPos)
		args = append(args, *match.Email)
		argPos++
	}
	if match.FirstName != nil && match.LastName != nil {
		query += fmt.Sprintf(" AND p.first_name = $%d AND p.last_name = $%d", argPos, argPos+1)
		args = append(args, *match.FirstName, *match.LastName)
		argPos += 2
	}
	if match.DateOfBirth != nil {
		query += fmt.Sprintf(" AND p.date_of_birth = $%d", argPos)
		args = append(args, *match.DateOfBirth)
		argPos++
	}

	query += " ORDER BY p.created_at DESC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find match candidates: %w", err)
	}
	defer rows.Close()

	persons := []*models.Person{}
	for rows.Next() {
		person, err := scanPerson(rows)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}

	return persons, rows.Err()
}

// DeleteProfileTx removes a person's employment profile row
func (r *PersonRepository) DeleteProfileTx(tx *sqlx.Tx, personID uuid.UUID) error {
	_, err := tx.Exec(`DELETE FROM employment_profiles WHERE person_id = $1`, personID)
	if err != nil {
		return fmt.Errorf("failed to delete employment profile: %w", err)
	}
	return nil
}
