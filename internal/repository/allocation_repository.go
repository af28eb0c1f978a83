package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/schoolhub-dev/schoolhub-api/internal/models"
)

// AllocationRepository persists teacher-class-subject bindings.
type AllocationRepository struct {
	db *sqlx.DB
}

// NewAllocationRepository constructs the repository.
func NewAllocationRepository(db *sqlx.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// FindByID loads one allocation.
func (r *AllocationRepository) FindByID(ctx context.Context, id string) (*models.Allocation, error) {
	const query = `SELECT id, teacher_id, class_id, subject_id, created_at FROM allocations WHERE id = $1`
	var allocation models.Allocation
	if err := r.db.GetContext(ctx, &allocation, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find allocation: %w", err)
	}
	return &allocation, nil
}

// List returns allocations matching the filter with descriptive names.
func (r *AllocationRepository) List(ctx context.Context, filter models.AllocationFilter) ([]models.AllocationDetail, int, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	idx := 1
	if filter.TeacherID != "" {
		where += fmt.Sprintf(" AND a.teacher_id = $%d", idx)
		args = append(args, filter.TeacherID)
		idx++
	}
	if filter.ClassID != "" {
		where += fmt.Sprintf(" AND a.class_id = $%d", idx)
		args = append(args, filter.ClassID)
		idx++
	}
	if filter.SubjectID != "" {
		where += fmt.Sprintf(" AND a.subject_id = $%d", idx)
		args = append(args, filter.SubjectID)
		idx++
	}

	countQuery := "SELECT COUNT(*) FROM allocations a " + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count allocations: %w", err)
	}

	query := `
SELECT a.id, a.teacher_id, a.class_id, a.subject_id, a.created_at,
       u.full_name AS teacher_name, c.name AS class_name, s.name AS subject_name
FROM allocations a
JOIN users u ON u.id = a.teacher_id
JOIN classes c ON c.id = a.class_id
JOIN subjects s ON s.id = a.subject_id
` + where + fmt.Sprintf(" ORDER BY c.name ASC, s.name ASC LIMIT $%d OFFSET $%d", idx, idx+1)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	var allocations []models.AllocationDetail
	if err := r.db.SelectContext(ctx, &allocations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, total, nil
}

// Exists checks whether the teacher-class-subject triple is already bound.
func (r *AllocationRepository) Exists(ctx context.Context, teacherID, classID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM allocations WHERE teacher_id = $1 AND class_id = $2 AND subject_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, teacherID, classID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check allocation: %w", err)
	}
	return true, nil
}

// Create inserts a new allocation. A unique violation on the triple
// propagates for the caller to translate.
func (r *AllocationRepository) Create(ctx context.Context, allocation *models.Allocation) error {
	if allocation.ID == "" {
		allocation.ID = uuid.NewString()
	}
	if allocation.CreatedAt.IsZero() {
		allocation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO allocations (id, teacher_id, class_id, subject_id, created_at)
		VALUES (:id, :teacher_id, :class_id, :subject_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, allocation); err != nil {
		return fmt.Errorf("create allocation: %w", err)
	}
	return nil
}

// Delete removes an allocation.
func (r *AllocationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM allocations WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete allocation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted allocation rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
