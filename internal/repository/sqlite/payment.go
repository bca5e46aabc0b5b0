package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// paymentRepo implements domain.PaymentRepository using SQLite.
type paymentRepo struct {
	db *sql.DB
}

func (r *paymentRepo) Create(ctx context.Context, p *domain.Payment) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.Status == "" {
		p.Status = domain.PaymentPending
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO payments (student_id, course_id, amount, status, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.StudentID, p.CourseID, p.Amount, p.Status, p.CreatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: student %d or course %d", domain.ErrNotFound, p.StudentID, p.CourseID)
		}
		return fmt.Errorf("insert payment: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get payment id: %w", err)
	}
	return nil
}

// ListCompletedByCourses returns COMPLETED payments only. Pending, failed
// and refunded payments never count as revenue.
func (r *paymentRepo) ListCompletedByCourses(ctx context.Context, courseIDs []int64) ([]domain.Payment, error) {
	if len(courseIDs) == 0 {
		return []domain.Payment{}, nil
	}
	placeholders, args := inClause(courseIDs)
	args = append(args, domain.PaymentCompleted)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, student_id, course_id, amount, status, created_at FROM payments
		 WHERE course_id IN (`+placeholders+`) AND status = ? ORDER BY id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.StudentID, &p.CourseID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
