package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/schoolhub-dev/schoolhub-api/internal/authz"
	"github.com/schoolhub-dev/schoolhub-api/internal/models"
	"github.com/schoolhub-dev/schoolhub-api/internal/validation"
	"github.com/schoolhub-dev/schoolhub-api/pkg/database"
	"github.com/schoolhub-dev/schoolhub-api/pkg/export"
	"github.com/schoolhub-dev/schoolhub-api/pkg/result"
)

const dateLayout = "2006-01-02"

type attendanceAllocationReader interface {
	FindByID(ctx context.Context, id string) (*models.Allocation, error)
}

type attendanceSessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.AttendanceSession, error)
	FindByAllocationAndDate(ctx context.Context, allocationID string, date time.Time) (*models.AttendanceSession, error)
	ExistsOther(ctx context.Context, allocationID string, date time.Time, excludeID string) (bool, error)
	Create(ctx context.Context, session *models.AttendanceSession) error
	UpdateDate(ctx context.Context, id string, date time.Time) error
	Delete(ctx context.Context, id string) error
}

type attendanceRecordRepository interface {
	FindBySessionAndStudent(ctx context.Context, sessionID, studentID string) (*models.AttendanceRecord, error)
	ListBySession(ctx context.Context, sessionID string) ([]models.AttendanceRecordDetail, error)
	Create(ctx context.Context, record *models.AttendanceRecord) error
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) error
}

// AttendanceMarkItem is one student's status within a mark call.
type AttendanceMarkItem struct {
	StudentID string `json:"student_id" validate:"required"`
	Status    string `json:"status" validate:"required,attendance_status"`
}

// MarkAttendanceRequest records statuses for an allocation on a date. The
// session is found or created as needed.
type MarkAttendanceRequest struct {
	AllocationID string               `json:"allocation_id" validate:"required"`
	Date         string               `json:"date" validate:"required,datetime=2006-01-02"`
	Records      []AttendanceMarkItem `json:"records" validate:"dive"`
}

// UpdateAttendanceRequest moves a session's date and re-marks records.
type UpdateAttendanceRequest struct {
	SessionID string               `json:"-" validate:"required"`
	Date      string               `json:"date" validate:"required,datetime=2006-01-02"`
	Records   []AttendanceMarkItem `json:"records" validate:"dive"`
}

// RecapExport is a rendered attendance recap file.
type RecapExport struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// AttendanceService reconciles attendance sessions and records: sessions are
// found-or-created by (allocation, date), records are upserted by
// (session, student), and students omitted from a call are never touched.
type AttendanceService struct {
	allocations attendanceAllocationReader
	sessions    attendanceSessionRepository
	records     attendanceRecordRepository
	policy      authz.Policy
	logger      *zap.Logger

	markValidators   []validation.Validator[MarkAttendanceRequest]
	updateValidators []validation.Validator[UpdateAttendanceRequest]
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(
	allocations attendanceAllocationReader,
	sessions attendanceSessionRepository,
	records attendanceRecordRepository,
	policy authz.Policy,
	validate *validator.Validate,
	logger *zap.Logger,
) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	validate.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})

	svc := &AttendanceService{
		allocations: allocations,
		sessions:    sessions,
		records:     records,
		policy:      policy,
		logger:      logger,
	}
	svc.markValidators = []validation.Validator[MarkAttendanceRequest]{
		validation.NewStructRules[MarkAttendanceRequest](validate),
		validation.Func[MarkAttendanceRequest](func(ctx context.Context, req MarkAttendanceRequest) []result.Error {
			return duplicateStudentErrors(req.Records)
		}),
	}
	svc.updateValidators = []validation.Validator[UpdateAttendanceRequest]{
		validation.NewStructRules[UpdateAttendanceRequest](validate),
		validation.Func[UpdateAttendanceRequest](func(ctx context.Context, req UpdateAttendanceRequest) []result.Error {
			return duplicateStudentErrors(req.Records)
		}),
	}
	return svc
}

// Mark finds or creates the session for (allocation, date) and upserts the
// supplied records. The returned id does not reveal whether the session
// pre-existed.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) result.Result[string] {
	return validation.Run(ctx, req, s.markValidators, s.mark)
}

func (s *AttendanceService) mark(ctx context.Context, req MarkAttendanceRequest) result.Result[string] {
	date, parseErr := time.Parse(dateLayout, req.Date)
	if parseErr != nil {
		return result.Err[string](result.Validation("INVALID_DATE", "date must be formatted YYYY-MM-DD"))
	}

	allocation, err := s.allocations.FindByID(ctx, req.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[string](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[string](s.unexpected("resolve allocation", err))
	}

	session, err := s.sessions.FindByAllocationAndDate(ctx, allocation.ID, date)
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		session = &models.AttendanceSession{AllocationID: allocation.ID, Date: date}
		if createErr := s.sessions.Create(ctx, session); createErr != nil {
			// A concurrent Mark for the same pair may win the insert race;
			// the database settles it and the loser reports a conflict.
			if database.IsUniqueViolation(createErr) {
				return result.Err[string](result.Conflict("SESSION_ALREADY_EXISTS", "an attendance session already exists for this date"))
			}
			return result.Err[string](s.unexpected("create attendance session", createErr))
		}
	default:
		return result.Err[string](s.unexpected("find attendance session", err))
	}

	if r := s.upsertRecords(ctx, session.ID, req.Records); !r.Succeeded() {
		return result.Forward[string](r)
	}
	return result.Ok(session.ID)
}

// Update moves a session to a new date and applies the same per-record
// upsert as Mark. Only the owning teacher (or an admin when the bypass is
// enabled) may call it.
func (s *AttendanceService) Update(ctx context.Context, caller authz.Identity, req UpdateAttendanceRequest) result.Empty {
	return validation.Run(ctx, req, s.updateValidators, func(ctx context.Context, req UpdateAttendanceRequest) result.Empty {
		return s.update(ctx, caller, req)
	})
}

func (s *AttendanceService) update(ctx context.Context, caller authz.Identity, req UpdateAttendanceRequest) result.Empty {
	session, err := s.sessions.FindByID(ctx, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SESSION_NOT_FOUND", "attendance session not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve attendance session", err))
	}

	allocation, err := s.allocations.FindByID(ctx, session.AllocationID)
	if err != nil {
		// A dangling allocation reference is a data-integrity condition,
		// not a user error; it still surfaces as not-found.
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve allocation", err))
	}

	if r := s.policy.CanManage(caller, allocation.TeacherID); !r.Succeeded() {
		return r
	}

	newDate, parseErr := time.Parse(dateLayout, req.Date)
	if parseErr != nil {
		return result.Err[result.Unit](result.Validation("INVALID_DATE", "date must be formatted YYYY-MM-DD"))
	}

	if !newDate.Equal(session.Date) {
		taken, err := s.sessions.ExistsOther(ctx, allocation.ID, newDate, session.ID)
		if err != nil {
			return result.Err[result.Unit](s.unexpected("check session date", err))
		}
		if taken {
			return result.Err[result.Unit](result.Conflict("SESSION_DATE_TAKEN", "a session already exists for this date"))
		}
		if err := s.sessions.UpdateDate(ctx, session.ID, newDate); err != nil {
			return result.Err[result.Unit](s.unexpected("update session date", err))
		}
	}

	return s.upsertRecords(ctx, session.ID, req.Records)
}

// Delete removes a session; its records go with it.
func (s *AttendanceService) Delete(ctx context.Context, caller authz.Identity, sessionID string) result.Empty {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SESSION_NOT_FOUND", "attendance session not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve attendance session", err))
	}

	allocation, err := s.allocations.FindByID(ctx, session.AllocationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("ALLOCATION_NOT_FOUND", "allocation not found"))
		}
		return result.Err[result.Unit](s.unexpected("resolve allocation", err))
	}

	if r := s.policy.CanManage(caller, allocation.TeacherID); !r.Succeeded() {
		return r
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[result.Unit](result.NotFound("SESSION_NOT_FOUND", "attendance session not found"))
		}
		return result.Err[result.Unit](s.unexpected("delete attendance session", err))
	}
	return result.OK()
}

// Recap returns a session with all of its records.
func (s *AttendanceService) Recap(ctx context.Context, sessionID string) result.Result[models.AttendanceSessionDetail] {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return result.Err[models.AttendanceSessionDetail](result.NotFound("SESSION_NOT_FOUND", "attendance session not found"))
		}
		return result.Err[models.AttendanceSessionDetail](s.unexpected("resolve attendance session", err))
	}
	records, err := s.records.ListBySession(ctx, session.ID)
	if err != nil {
		return result.Err[models.AttendanceSessionDetail](s.unexpected("list attendance records", err))
	}
	return result.Ok(models.AttendanceSessionDetail{AttendanceSession: *session, Records: records})
}

// ExportRecap renders the session recap as a downloadable file.
func (s *AttendanceService) ExportRecap(ctx context.Context, sessionID, format string) result.Result[RecapExport] {
	recap := s.Recap(ctx, sessionID)
	if !recap.Succeeded() {
		return result.Forward[RecapExport](recap)
	}

	detail := recap.Value()
	dataset := export.Dataset{Headers: []string{"Student", "Status", "Marked At"}}
	for _, record := range detail.Records {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":   record.StudentName,
			"Status":    string(record.Status),
			"Marked At": record.UpdatedAt.Format(time.RFC3339),
		})
	}

	title := fmt.Sprintf("Attendance %s", detail.Date.Format(dateLayout))
	switch strings.ToLower(format) {
	case "", "pdf":
		content, err := export.NewPDFExporter().Render(dataset, title)
		if err != nil {
			return result.Err[RecapExport](s.unexpected("render recap pdf", err))
		}
		return result.Ok(RecapExport{
			FileName:    fmt.Sprintf("attendance-%s.pdf", detail.Date.Format(dateLayout)),
			ContentType: "application/pdf",
			Content:     content,
		})
	case "csv":
		content, err := export.NewCSVExporter().Render(dataset)
		if err != nil {
			return result.Err[RecapExport](s.unexpected("render recap csv", err))
		}
		return result.Ok(RecapExport{
			FileName:    fmt.Sprintf("attendance-%s.csv", detail.Date.Format(dateLayout)),
			ContentType: "text/csv",
			Content:     content,
		})
	default:
		return result.Err[RecapExport](result.Validation("INVALID_FORMAT", "format must be pdf or csv"))
	}
}

// upsertRecords applies the per-record reconciliation shared by Mark and
// Update: first mark creates, later marks overwrite, omitted students are
// left untouched.
func (s *AttendanceService) upsertRecords(ctx context.Context, sessionID string, items []AttendanceMarkItem) result.Empty {
	for _, item := range items {
		status := models.AttendanceStatus(strings.ToUpper(item.Status))
		existing, err := s.records.FindBySessionAndStudent(ctx, sessionID, item.StudentID)
		switch {
		case err == nil:
			if err := s.records.UpdateStatus(ctx, existing.ID, status); err != nil {
				return result.Err[result.Unit](s.unexpected("update attendance record", err))
			}
		case errors.Is(err, sql.ErrNoRows):
			record := &models.AttendanceRecord{SessionID: sessionID, StudentID: item.StudentID, Status: status}
			if createErr := s.records.Create(ctx, record); createErr != nil {
				if database.IsUniqueViolation(createErr) {
					return result.Err[result.Unit](result.Conflict("RECORD_ALREADY_EXISTS", "attendance already marked for this student"))
				}
				return result.Err[result.Unit](s.unexpected("create attendance record", createErr))
			}
		default:
			return result.Err[result.Unit](s.unexpected("find attendance record", err))
		}
	}
	return result.OK()
}

func (s *AttendanceService) unexpected(op string, err error) result.Error {
	s.logger.Error("attendance operation failed", zap.String("op", op), zap.Error(err))
	return result.Failure("UNEXPECTED_ERROR", "an unexpected error occurred")
}

func duplicateStudentErrors(items []AttendanceMarkItem) []result.Error {
	seen := make(map[string]struct{}, len(items))
	var errs []result.Error
	for _, item := range items {
		if item.StudentID == "" {
			continue
		}
		if _, ok := seen[item.StudentID]; ok {
			errs = append(errs, result.Validation("DUPLICATE_STUDENT", fmt.Sprintf("student %s appears more than once", item.StudentID)))
			continue
		}
		seen[item.StudentID] = struct{}{}
	}
	return errs
}
