package domain

import (
	"github.com/shopspring/decimal"
)

// Installment is one monthly payment in an installment (EMI) schedule.
type Installment struct {
	Month  int
	Amount decimal.Decimal
}

// InstallmentPlan is the derived installment billing of a price. It is a
// value: recompute it whenever the price, discount or tenor changes.
type InstallmentPlan struct {
	TotalAmount      decimal.Decimal
	InstallmentCount int
	PerMonth         decimal.Decimal
	Schedule         []Installment
}

// EffectivePrice returns the amount actually financed: the discount price
// when it is positive, otherwise the base price.
func EffectivePrice(basePrice, discountPrice decimal.Decimal) decimal.Decimal {
	if discountPrice.IsPositive() {
		return discountPrice
	}
	return basePrice
}

// ComputeSchedule splits totalAmount into installmentCount monthly amounts
// rounded to whole currency units. See ComputeScheduleAt.
func ComputeSchedule(totalAmount decimal.Decimal, installmentCount int) []Installment {
	return ComputeScheduleAt(totalAmount, installmentCount, DefaultCurrencyPlaces)
}

// ComputeScheduleAt splits totalAmount into installmentCount monthly
// amounts. Every month but the last pays totalAmount/installmentCount
// rounded half away from zero to places decimals; the last month pays the
// exact remainder so the amounts always sum to totalAmount.
//
// A non-positive amount or count yields an empty schedule.
func ComputeScheduleAt(totalAmount decimal.Decimal, installmentCount int, places int32) []Installment {
	if !totalAmount.IsPositive() || installmentCount < 1 {
		return []Installment{}
	}

	n := decimal.NewFromInt(int64(installmentCount))
	rest := decimal.NewFromInt(int64(installmentCount - 1))

	perMonth := totalAmount.DivRound(n, places)
	if perMonth.Mul(rest).GreaterThan(totalAmount) {
		// Rounding up overshot so far that the last month would go
		// negative (tiny totals over long tenors). Round down instead.
		perMonth, _ = totalAmount.QuoRem(n, places)
	}

	schedule := make([]Installment, installmentCount)
	for i := 0; i < installmentCount-1; i++ {
		schedule[i] = Installment{Month: i + 1, Amount: perMonth}
	}
	schedule[installmentCount-1] = Installment{
		Month:  installmentCount,
		Amount: totalAmount.Sub(perMonth.Mul(rest)),
	}
	return schedule
}

// NewInstallmentPlan derives the effective price of basePrice and
// discountPrice and splits it over installmentCount months at the given
// precision. Negative prices are treated as zero.
func NewInstallmentPlan(basePrice, discountPrice decimal.Decimal, installmentCount int, places int32) InstallmentPlan {
	total := EffectivePrice(ClampAmount(basePrice), ClampAmount(discountPrice))
	if installmentCount < 0 {
		installmentCount = 0
	}

	schedule := ComputeScheduleAt(total, installmentCount, places)
	plan := InstallmentPlan{
		TotalAmount:      total,
		InstallmentCount: installmentCount,
		PerMonth:         decimal.Zero,
		Schedule:         schedule,
	}
	if len(schedule) > 0 {
		plan.PerMonth = schedule[0].Amount
	}
	return plan
}

// Sum returns the total of all scheduled amounts.
func (p InstallmentPlan) Sum() decimal.Decimal {
	return SumInstallments(p.Schedule)
}

// IsEmpty reports whether the plan has no installments, i.e. the price or
// tenor is not configured yet.
func (p InstallmentPlan) IsEmpty() bool {
	return len(p.Schedule) == 0
}

// Matches reports whether a client-submitted schedule is identical, month
// by month, to the plan's schedule.
func (p InstallmentPlan) Matches(schedule []Installment) bool {
	if len(schedule) != len(p.Schedule) {
		return false
	}
	for i, inst := range schedule {
		want := p.Schedule[i]
		if inst.Month != want.Month || !inst.Amount.Equal(want.Amount) {
			return false
		}
	}
	return true
}

// SumInstallments adds up the amounts of a schedule.
func SumInstallments(schedule []Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.Amount)
	}
	return total
}
