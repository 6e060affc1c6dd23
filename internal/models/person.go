package models

import (
	"time"

	"github.com/google/uuid"
)

// PersonType represents the classification of a person record
type PersonType string

const (
	PersonTypeStaff PersonType = "staff"
)

// Person represents one staff identity record within an organisation
type Person struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	OrganisationID    uuid.UUID  `json:"organisation_id" db:"organisation_id"`
	PersonType        PersonType `json:"person_type" db:"person_type"`
	FirstName         string     `json:"first_name" db:"first_name"`
	LastName          string     `json:"last_name" db:"last_name"`
	Email             *string    `json:"email,omitempty" db:"email"`
	Phone             *string    `json:"phone,omitempty" db:"phone"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	EmployeeReference *string    `json:"employee_reference,omitempty" db:"employee_reference"`
	PhotoURL          *string    `json:"photo_url,omitempty" db:"photo_url"`
	UserID            *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	IsActive          bool       `json:"is_active" db:"is_active"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// EmploymentProfile is the 1:1 extension of a Person, created lazily
// when profile-level fields are first supplied.
type EmploymentProfile struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	PersonID              uuid.UUID  `json:"person_id" db:"person_id"`
	JobTitle              *string    `json:"job_title,omitempty" db:"job_title"`
	EmploymentStartDate   *time.Time `json:"employment_start_date,omitempty" db:"employment_start_date"`
	EmploymentEndDate     *time.Time `json:"employment_end_date,omitempty" db:"employment_end_date"`
	LineManagerID         *uuid.UUID `json:"line_manager_id,omitempty" db:"line_manager_id"`
	EmergencyContactName  *string    `json:"emergency_contact_name,omitempty" db:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone,omitempty" db:"emergency_contact_phone"`
	AddressLine1          *string    `json:"address_line1,omitempty" db:"address_line1"`
	City                  *string    `json:"city,omitempty" db:"city"`
	Postcode              *string    `json:"postcode,omitempty" db:"postcode"`
	AnnualLeaveBalance    *float64   `json:"annual_leave_balance,omitempty" db:"annual_leave_balance"`
	Notes                 *string    `json:"notes,omitempty" db:"notes"`
	CreatedAt             time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at" db:"updated_at"`
}

// UnitMembership assigns a person to an organisational unit
type UnitMembership struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PersonID  uuid.UUID `json:"person_id" db:"person_id"`
	UnitID    uuid.UUID `json:"unit_id" db:"unit_id"`
	Role      *string   `json:"role,omitempty" db:"role"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// CreateStaffInput represents input for staff creation
type CreateStaffInput struct {
	FirstName         string     `json:"first_name" binding:"required"`
	LastName          string     `json:"last_name" binding:"required"`
	Email             *string    `json:"email"`
	Phone             *string    `json:"phone"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	EmployeeReference *string    `json:"employee_reference"`
	PhotoURL          *string    `json:"photo_url"`
	UserID            *uuid.UUID `json:"user_id"`
}

// UpdateStaffInput represents a partial update; nil fields are left untouched
type UpdateStaffInput struct {
	FirstName         *string    `json:"first_name"`
	LastName          *string    `json:"last_name"`
	Email             *string    `json:"email"`
	Phone             *string    `json:"phone"`
	DateOfBirth       *time.Time `json:"date_of_birth"`
	EmployeeReference *string    `json:"employee_reference"`
	PhotoURL          *string    `json:"photo_url"`
	UserID            *uuid.UUID `json:"user_id"`

	// Profile-level fields; supplying any of these lazily creates the
	// employment profile row if one does not exist yet
	JobTitle              *string    `json:"job_title"`
	EmploymentStartDate   *time.Time `json:"employment_start_date"`
	EmploymentEndDate     *time.Time `json:"employment_end_date"`
	LineManagerID         *uuid.UUID `json:"line_manager_id"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	AddressLine1          *string    `json:"address_line1"`
	City                  *string    `json:"city"`
	Postcode              *string    `json:"postcode"`
	AnnualLeaveBalance    *float64   `json:"annual_leave_balance"`
	Notes                 *string    `json:"notes"`
}

// HasProfileFields reports whether the update touches the employment profile
func (u *UpdateStaffInput) HasProfileFields() bool {
	return u.JobTitle != nil || u.EmploymentStartDate != nil || u.EmploymentEndDate != nil ||
		u.LineManagerID != nil || u.EmergencyContactName != nil || u.EmergencyContactPhone != nil ||
		u.AddressLine1 != nil || u.City != nil || u.Postcode != nil ||
		u.AnnualLeaveBalance != nil || u.Notes != nil
}
