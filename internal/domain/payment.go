package domain

import (
	"context"
	"time"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

// Payment is a record written by the payment gateway integration. Amount is
// summed as stored; no currency conversion happens here.
type Payment struct {
	ID        int64
	StudentID int64
	CourseID  int64
	Amount    float64
	Status    PaymentStatus
	CreatedAt time.Time
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *Payment) error
	ListCompletedByCourses(ctx context.Context, courseIDs []int64) ([]Payment, error)
}
