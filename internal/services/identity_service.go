package services

import (
	"fmt"

	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// IdentityService owns the canonical person record: lookup, idempotent
// creation, partial update and soft deactivation.
type IdentityService struct {
	persons *database.PersonRepository
	logger  *logrus.Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(persons *database.PersonRepository, logger *logrus.Logger) *IdentityService {
	return &IdentityService{persons: persons, logger: logger}
}

// GetPerson retrieves a person within an organisation scope. Returns
// (nil, nil) when the person does not exist or belongs to another tenant.
func (s *IdentityService) GetPerson(personID, organisationID uuid.UUID) (*models.Person, error) {
	return s.persons.GetByID(personID, organisationID)
}

// GetProfile retrieves a person's employment profile, or (nil, nil) when no
// profile row exists yet
func (s *IdentityService) GetProfile(personID, organisationID uuid.UUID) (*models.EmploymentProfile, error) {
	person, err := s.persons.GetByID(personID, organisationID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}
	return s.persons.GetProfile(personID)
}

// CreateStaff creates a staff person record, idempotently by identity: if the
// supplied user reference already has a person in this organisation, or the
// supplied email matches an existing staff person's own or linked-account
// email, the call degrades to an update of that record instead of creating a
// duplicate. The existence check and the insert run in one transaction; a
// partial unique index on (organisation_id, user_id) backstops concurrent
// double-submits.
//
// The second return value reports whether a new record was created.
func (s *IdentityService) CreateStaff(organisationID uuid.UUID, input *models.CreateStaffInput) (*models.Person, bool, error) {
	tx, err := s.persons.BeginTx()
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing *models.Person

	if input.UserID != nil {
		existing, err = s.persons.GetByUserIDTx(tx, organisationID, *input.UserID)
		if err != nil {
			return nil, false, err
		}
	}

	if existing == nil && input.Email != nil && *input.Email != "" {
		existing, err = s.persons.GetByOwnOrLinkedEmailTx(tx, organisationID, *input.Email)
		if err != nil {
			return nil, false, err
		}
	}

	if existing != nil {
		updated, err := s.updateExistingTx(tx, existing, input)
		if err != nil {
			return nil, false, err
		}
		if err := tx.Commit(); err != nil {
			return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
		}

		s.logger.WithFields(logrus.Fields{
			"person_id":       updated.ID,
			"organisation_id": organisationID,
		}).Info("Staff creation matched an existing person, updated instead")
		return updated, false, nil
	}

	person := &models.Person{
		OrganisationID:    organisationID,
		PersonType:        models.PersonTypeStaff,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		Email:             input.Email,
		Phone:             input.Phone,
		DateOfBirth:       input.DateOfBirth,
		EmployeeReference: input.EmployeeReference,
		PhotoURL:          input.PhotoURL,
		UserID:            input.UserID,
		IsActive:          true,
	}

	if err := s.persons.InsertTx(tx, person); err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"person_id":       person.ID,
		"organisation_id": organisationID,
	}).Info("Staff person created")
	return person, true, nil
}

// updateExistingTx applies the creation attributes onto the matched person
func (s *IdentityService) updateExistingTx(tx *sqlx.Tx, existing *models.Person, input *models.CreateStaffInput) (*models.Person, error) {
	fields := map[string]interface{}{
		"first_name": input.FirstName,
		"last_name":  input.LastName,
	}
	if input.Email != nil {
		fields["email"] = *input.Email
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.DateOfBirth != nil {
		fields["date_of_birth"] = *input.DateOfBirth
	}
	if input.EmployeeReference != nil {
		fields["employee_reference"] = *input.EmployeeReference
	}
	if input.PhotoURL != nil {
		fields["photo_url"] = *input.PhotoURL
	}
	if input.UserID != nil {
		fields["user_id"] = *input.UserID
	}

	if _, err := s.persons.UpdateFieldsTx(tx, existing.ID, fields); err != nil {
		return nil, err
	}
	return s.persons.GetByIDTx(tx, existing.ID, existing.OrganisationID)
}

// UpdateStaff partially updates a person; nil input fields are left
// untouched. Supplying profile-level fields lazily creates the employment
// profile row if none exists. Person and profile changes commit together.
// Returns (nil, nil) when the person is not found in the organisation.
func (s *IdentityService) UpdateStaff(personID, organisationID uuid.UUID, input *models.UpdateStaffInput) (*models.Person, error) {
	tx, err := s.persons.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	person, err := s.persons.GetByIDTx(tx, personID, organisationID)
	if err != nil {
		return nil, err
	}
	if person == nil {
		return nil, nil
	}

	fields := personUpdateFields(input)
	if len(fields) > 0 {
		if _, err := s.persons.UpdateFieldsTx(tx, personID, fields); err != nil {
			return nil, err
		}
	}

	if input.HasProfileFields() {
		if err := s.applyProfileUpdateTx(tx, personID, input); err != nil {
			return nil, err
		}
	}

	updated, err := s.persons.GetByIDTx(tx, personID, organisationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return updated, nil
}

func personUpdateFields(input *models.UpdateStaffInput) map[string]interface{} {
	fields := map[string]interface{}{}
	if input.FirstName != nil {
		fields["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		fields["last_name"] = *input.LastName
	}
	if input.Email != nil {
		fields["email"] = *input.Email
	}
	if input.Phone != nil {
		fields["phone"] = *input.Phone
	}
	if input.DateOfBirth != nil {
		fields["date_of_birth"] = *input.DateOfBirth
	}
	if input.EmployeeReference != nil {
		fields["employee_reference"] = *input.EmployeeReference
	}
	if input.PhotoURL != nil {
		fields["photo_url"] = *input.PhotoURL
	}
	if input.UserID != nil {
		fields["user_id"] = *input.UserID
	}
	return fields
}

func (s *IdentityService) applyProfileUpdateTx(tx *sqlx.Tx, personID uuid.UUID, input *models.UpdateStaffInput) error {
	profile, err := s.persons.GetProfileTx(tx, personID)
	if err != nil {
		return err
	}

	if profile == nil {
		profile = &models.EmploymentProfile{
			PersonID:              personID,
			JobTitle:              input.JobTitle,
			EmploymentStartDate:   input.EmploymentStartDate,
			EmploymentEndDate:     input.EmploymentEndDate,
			LineManagerID:         input.LineManagerID,
			EmergencyContactName:  input.EmergencyContactName,
			EmergencyContactPhone: input.EmergencyContactPhone,
			AddressLine1:          input.AddressLine1,
			City:                  input.City,
			Postcode:              input.Postcode,
			AnnualLeaveBalance:    input.AnnualLeaveBalance,
			Notes:                 input.Notes,
		}
		return s.persons.InsertProfileTx(tx, profile)
	}

	fields := map[string]interface{}{}
	if input.JobTitle != nil {
		fields["job_title"] = *input.JobTitle
	}
	if input.EmploymentStartDate != nil {
		fields["employment_start_date"] = *input.EmploymentStartDate
	}
	if input.EmploymentEndDate != nil {
		fields["employment_end_date"] = *input.EmploymentEndDate
	}
	if input.LineManagerID != nil {
		fields["line_manager_id"] = *input.LineManagerID
	}
	if input.EmergencyContactName != nil {
		fields["emergency_contact_name"] = *input.EmergencyContactName
	}
	if input.EmergencyContactPhone != nil {
		fields["emergency_contact_phone"] = *input.EmergencyContactPhone
	}
	if input.AddressLine1 != nil {
		fields["address_line1"] = *input.AddressLine1
	}
	if input.City != nil {
		fields["city"] = *input.City
	}
	if input.Postcode != nil {
		fields["postcode"] = *input.Postcode
	}
	if input.AnnualLeaveBalance != nil {
		fields["annual_leave_balance"] = *input.AnnualLeaveBalance
	}
	if input.Notes != nil {
		fields["notes"] = *input.Notes
	}

	if len(fields) == 0 {
		return nil
	}
	_, err = s.persons.UpdateProfileFieldsTx(tx, personID, fields)
	return err
}

// Deactivate flips is_active to false. Edges and child records are untouched.
// Returns whether a row was deactivated.
func (s *IdentityService) Deactivate(personID, organisationID uuid.UUID) (bool, error) {
	deactivated, err := s.persons.Deactivate(personID, organisationID)
	if err != nil {
		return false, err
	}
	if deactivated {
		s.logger.WithFields(logrus.Fields{
			"person_id":       personID,
			"organisation_id": organisationID,
		}).Info("Person deactivated")
	}
	return deactivated, nil
}
