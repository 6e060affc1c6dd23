package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/crewrecords/staff-records-backend/internal/database"
	"github.com/crewrecords/staff-records-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// MergeService consolidates two person records into one survivor. The source
// record and its child rows are deleted, so the whole sequence runs in one
// transaction: any failure leaves both records intact.
type MergeService struct {
	persons       *database.PersonRepository
	relationships *database.RelationshipRepository
	memberships   *database.UnitMembershipRepository
	audits        *database.MergeAuditRepository
	logger        *logrus.Logger
}

// NewMergeService creates a new MergeService
func NewMergeService(
	persons *database.PersonRepository,
	relationships *database.RelationshipRepository,
	memberships *database.UnitMembershipRepository,
	audits *database.MergeAuditRepository,
	logger *logrus.Logger,
) *MergeService {
	return &MergeService{
		persons:       persons,
		relationships: relationships,
		memberships:   memberships,
		audits:        audits,
		logger:        logger,
	}
}

// Merge reconciles source into target and deletes source. Field rule: a field
// is adopted from source only when target's value is empty; on conflict the
// target wins. Unit memberships migrate with dedup by unit id. The source's
// relationship edges are discarded, not re-pointed at the target. Returns the
// reconciled target.
func (s *MergeService) Merge(organisationID, targetID, sourceID uuid.UUID, audit *AuditContext) (*models.Person, error) {
	if targetID == sourceID {
		return nil, ErrSelfMerge
	}

	tx, err := s.persons.BeginTx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock the pair in a canonical id order so two merges of the same pair
	// started in opposite directions cannot deadlock on the row locks.
	lockFirst, lockSecond := targetID, sourceID
	if bytes.Compare(sourceID[:], targetID[:]) < 0 {
		lockFirst, lockSecond = sourceID, targetID
	}

	first, err := s.persons.GetByIDTx(tx, lockFirst, organisationID)
	if err != nil {
		return nil, err
	}
	if first == nil {
		return nil, ErrPersonNotFound
	}

	second, err := s.persons.GetByIDTx(tx, lockSecond, organisationID)
	if err != nil {
		return nil, err
	}
	if second == nil {
		return nil, ErrPersonNotFound
	}

	target, source := first, second
	if target.ID != targetID {
		target, source = second, first
	}

	if err := s.reconcilePersonTx(tx, target, source); err != nil {
		return nil, err
	}
	if err := s.reconcileProfilesTx(tx, target, source); err != nil {
		return nil, err
	}
	if err := s.migrateMembershipsTx(tx, targetID, sourceID); err != nil {
		return nil, err
	}

	// The source's edges do not transfer; merging collapses the pair into
	// one record, so no edge remains to point at.
	if _, err := s.relationships.DeleteAllForPersonTx(tx, sourceID); err != nil {
		return nil, err
	}
	if err := s.persons.DeleteProfileTx(tx, sourceID); err != nil {
		return nil, err
	}
	if err := s.persons.DeleteTx(tx, sourceID); err != nil {
		return nil, err
	}

	auditRow := &models.MergeAudit{
		OrganisationID: organisationID,
		Operation:      models.AuditOperationMerge,
		TargetPersonID: targetID,
		SourcePersonID: sourceID,
	}
	if audit != nil {
		auditRow.PerformedBy = audit.PerformedBy
		auditRow.IPAddress = audit.IPAddress
		auditRow.DeviceType = audit.DeviceType
	}
	if err := s.audits.InsertTx(tx, auditRow); err != nil {
		return nil, err
	}

	merged, err := s.persons.GetByIDTx(tx, targetID, organisationID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"organisation_id":  organisationID,
		"target_person_id": targetID,
		"source_person_id": sourceID,
	}).Info("Person records merged")

	return merged, nil
}

// reconcilePersonTx applies the empty-wins rule to the identity-level fields
func (s *MergeService) reconcilePersonTx(tx *sqlx.Tx, target, source *models.Person) error {
	fields := map[string]interface{}{}

	adoptString(fields, "email", target.Email, source.Email)
	adoptString(fields, "phone", target.Phone, source.Phone)
	adoptTime(fields, "date_of_birth", target.DateOfBirth, source.DateOfBirth)
	adoptString(fields, "employee_reference", target.EmployeeReference, source.EmployeeReference)
	adoptString(fields, "photo_url", target.PhotoURL, source.PhotoURL)
	adoptUUID(fields, "user_id", target.UserID, source.UserID)

	if len(fields) == 0 {
		return nil
	}

	// The partial unique index on (organisation_id, user_id) rejects the
	// adoption while the source row still holds the same reference, so the
	// source releases it first.
	if _, ok := fields["user_id"]; ok {
		release := map[string]interface{}{"user_id": nil}
		if _, err := s.persons.UpdateFieldsTx(tx, source.ID, release); err != nil {
			return err
		}
	}

	_, err := s.persons.UpdateFieldsTx(tx, target.ID, fields)
	return err
}

// reconcileProfilesTx applies the empty-wins rule to the employment profile
// extensions. Profiles are fetched directly, not through the person read path.
// A source profile with no target counterpart is adopted wholesale.
func (s *MergeService) reconcileProfilesTx(tx *sqlx.Tx, target, source *models.Person) error {
	sourceProfile, err := s.persons.GetProfileTx(tx, source.ID)
	if err != nil {
		return err
	}
	if sourceProfile == nil {
		return nil
	}

	// A line manager reference to either side of the merge would dangle once
	// the source row is deleted
	lineManager := sourceProfile.LineManagerID
	if lineManager != nil && (*lineManager == source.ID || *lineManager == target.ID) {
		lineManager = nil
	}

	targetProfile, err := s.persons.GetProfileTx(tx, target.ID)
	if err != nil {
		return err
	}

	if targetProfile == nil {
		adopted := &models.EmploymentProfile{
			PersonID:              target.ID,
			JobTitle:              sourceProfile.JobTitle,
			EmploymentStartDate:   sourceProfile.EmploymentStartDate,
			EmploymentEndDate:     sourceProfile.EmploymentEndDate,
			LineManagerID:         lineManager,
			EmergencyContactName:  sourceProfile.EmergencyContactName,
			EmergencyContactPhone: sourceProfile.EmergencyContactPhone,
			AddressLine1:          sourceProfile.AddressLine1,
			City:                  sourceProfile.City,
			Postcode:              sourceProfile.Postcode,
			AnnualLeaveBalance:    sourceProfile.AnnualLeaveBalance,
			Notes:                 sourceProfile.Notes,
		}
		return s.persons.InsertProfileTx(tx, adopted)
	}

	fields := map[string]interface{}{}
	adoptString(fields, "job_title", targetProfile.JobTitle, sourceProfile.JobTitle)
	adoptTime(fields, "employment_start_date", targetProfile.EmploymentStartDate, sourceProfile.EmploymentStartDate)
	adoptTime(fields, "employment_end_date", targetProfile.EmploymentEndDate, sourceProfile.EmploymentEndDate)
	adoptUUID(fields, "line_manager_id", targetProfile.LineManagerID, lineManager)
	adoptString(fields, "emergency_contact_name", targetProfile.EmergencyContactName, sourceProfile.EmergencyContactName)
	adoptString(fields, "emergency_contact_phone", targetProfile.EmergencyContactPhone, sourceProfile.EmergencyContactPhone)
	adoptString(fields, "address_line1", targetProfile.AddressLine1, sourceProfile.AddressLine1)
	adoptString(fields, "city", targetProfile.City, sourceProfile.City)
	adoptString(fields, "postcode", targetProfile.Postcode, sourceProfile.Postcode)
	adoptFloat(fields, "annual_leave_balance", targetProfile.AnnualLeaveBalance, sourceProfile.AnnualLeaveBalance)
	adoptString(fields, "notes", targetProfile.Notes, sourceProfile.Notes)

	if len(fields) == 0 {
		return nil
	}
	_, err = s.persons.UpdateProfileFieldsTx(tx, target.ID, fields)
	return err
}

// migrateMembershipsTx copies the source's unit assignments the target does
// not already hold, then removes all of the source's membership rows
func (s *MergeService) migrateMembershipsTx(tx *sqlx.Tx, targetID, sourceID uuid.UUID) error {
	sourceMemberships, err := s.memberships.ListByPersonTx(tx, sourceID)
	if err != nil {
		return err
	}
	targetMemberships, err := s.memberships.ListByPersonTx(tx, targetID)
	if err != nil {
		return err
	}

	held := map[uuid.UUID]bool{}
	for _, m := range targetMemberships {
		held[m.UnitID] = true
	}

	for _, m := range sourceMemberships {
		if held[m.UnitID] {
			continue
		}
		migrated := &models.UnitMembership{
			PersonID: targetID,
			UnitID:   m.UnitID,
			Role:     m.Role,
		}
		if err := s.memberships.InsertTx(tx, migrated); err != nil {
			return err
		}
		held[m.UnitID] = true
	}

	_, err = s.memberships.DeleteAllForPersonTx(tx, sourceID)
	return err
}

// adoptString records a source value when the target's is empty
func adoptString(fields map[string]interface{}, column string, target, source *string) {
	if (target == nil || *target == "") && source != nil && *source != "" {
		fields[column] = *source
	}
}

func adoptTime(fields map[string]interface{}, column string, target, source *time.Time) {
	if target == nil && source != nil {
		fields[column] = *source
	}
}

func adoptUUID(fields map[string]interface{}, column string, target, source *uuid.UUID) {
	if target == nil && source != nil {
		fields[column] = *source
	}
}

func adoptFloat(fields map[string]interface{}, column string, target, source *float64) {
	if target == nil && source != nil {
		fields[column] = *source
	}
}
