package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BatchStatus represents whether a batch still accepts enrollments.
type BatchStatus string

const (
	BatchStatusActive BatchStatus = "active"
	BatchStatusClosed BatchStatus = "closed"
)

// Batch is a scheduled run of a course program that students enroll in.
type Batch struct {
	BatchID            string
	Title              string
	Slug               string
	Description        string
	Program            string
	Price              decimal.Decimal
	DiscountPrice      decimal.Decimal
	IsEMI              bool
	EMI                *InstallmentPlan // nil unless IsEMI
	Status             BatchStatus
	EnrollmentClosesAt *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// EffectivePrice returns the price a student pays for the batch.
func (b *Batch) EffectivePrice() decimal.Decimal {
	return EffectivePrice(b.Price, b.DiscountPrice)
}

// Closable reports whether the batch is active with an enrollment deadline
// at or before now.
func (b *Batch) Closable(now time.Time) bool {
	return b.Status == BatchStatusActive &&
		b.EnrollmentClosesAt != nil &&
		!b.EnrollmentClosesAt.After(now)
}

// Clone returns a copy of b that shares no mutable state with it.
func (b *Batch) Clone() *Batch {
	c := *b
	if b.EMI != nil {
		plan := *b.EMI
		plan.Schedule = append([]Installment(nil), b.EMI.Schedule...)
		c.EMI = &plan
	}
	if b.EnrollmentClosesAt != nil {
		t := *b.EnrollmentClosesAt
		c.EnrollmentClosesAt = &t
	}
	return &c
}
