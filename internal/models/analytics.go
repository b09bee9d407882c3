package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type BusinessMetrics struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	MRR               decimal.Decimal `json:"mrr"`
	ChurnRate         decimal.Decimal `json:"churnRate"`
	FoundationCount   int64           `json:"foundationCount"`
	ProfessionalCount int64           `json:"professionalCount"`
	EliteCount        int64           `json:"eliteCount"`
}

type StudentPenalty struct {
	StudentID      string `json:"studentId"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	RejectedCount  int64  `json:"rejectedCount"`
	WarningCount   int64  `json:"warningCount"`
	TotalPenalties int64  `json:"totalPenalties"`
}

type PenaltyTrend struct {
	DatePeriod     time.Time `json:"date"`
	RejectedCount  int64     `json:"rejected"`
	WarningCount   int64     `json:"warning"`
	TotalPenalties int64     `json:"total"`
}

type RevenuePoint struct {
	Period  time.Time       `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Members int64           `json:"members"`
}

// CourseCompletion is the average progress of the students enrolled in a course.
type CourseCompletion struct {
	CourseID   string          `json:"courseId"`
	Name       string          `json:"name"`
	Enrolled   int64           `json:"enrolled"`
	Completed  int64           `json:"completed"`
	Completion decimal.Decimal `json:"completion"`
}

type CourseEnrollment struct {
	CourseID    string `json:"courseId"`
	Name        string `json:"name"`
	Enrollments int64  `json:"enrollments"`
}

// RuleViolation counts rejected or warned trades taken while a rule applied.
type RuleViolation struct {
	Rule       string `json:"rule"`
	Type       string `json:"type"`
	Violations int64  `json:"violations"`
	Students   int64  `json:"students"`
}
