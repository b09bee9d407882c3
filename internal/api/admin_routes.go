package api

import (
	"net/http"

	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/repository"
)

const studentTradesLimit = 50

type updateStudentRequest struct {
	Name  *string `json:"name" validate:"omitempty,notblank,max=200"`
	Email *string `json:"email" validate:"omitempty,email"`
	Tier  *string `json:"tier" validate:"omitempty,oneof=foundation professional elite"`
}

func (s *Server) handleAdminMetrics(w http.ResponseWriter, r *http.Request) {
	m, err := s.deps.Analytics.BusinessMetrics(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch business metrics")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) handleAdminPenalties(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Analytics.StudentPenalties(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch student penalties")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleAdminPenaltyTrends(w http.ResponseWriter, r *http.Request) {
	t, err := s.deps.Analytics.PenaltyTrends(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch penalty trends")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleAdminRevenue(w http.ResponseWriter, r *http.Request) {
	points, err := s.deps.Analytics.RevenueGrowth(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch revenue growth")
		return
	}
	writeJSON(w, http.StatusOK, points)
}

// handleAdminTrades lists journal entries across all students.
func (s *Server) handleAdminTrades(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Journal.GetAll(r.Context(), parseLimit(r, 100))
	if err != nil {
		writeFailure(w, r, err, "fetch trades")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleAdminCourseCompletion(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Analytics.CourseCompletion(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch course completion")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAdminCourseEnrollments(w http.ResponseWriter, r *http.Request) {
	c, err := s.deps.Analytics.CourseEnrollments(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch course enrollments")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAdminRuleViolations(w http.ResponseWriter, r *http.Request) {
	v, err := s.deps.Analytics.RuleViolations(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch rule violations")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleAdminListStudents(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Students.List(r.Context())
	if err != nil {
		writeFailure(w, r, err, "fetch students")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// handleAdminGetStudent returns the profile with the student's latest trades.
func (s *Server) handleAdminGetStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	student, err := s.deps.Students.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, r, err, "fetch student")
		return
	}
	trades, err := s.deps.Journal.GetByUser(r.Context(), id, parseLimit(r, studentTradesLimit))
	if err != nil {
		writeFailure(w, r, err, "fetch student trades")
		return
	}
	writeJSON(w, http.StatusOK, models.StudentDetail{Student: *student, Trades: trades})
}

func (s *Server) handleAdminUpdateStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateStudentRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	u := repository.StudentUpdate{Name: req.Name, Email: req.Email}
	if req.Tier != nil {
		tier := models.StudentTier(*req.Tier)
		u.Tier = &tier
	}
	student, err := s.deps.Students.Update(r.Context(), id, u)
	if err != nil {
		writeFailure(w, r, err, "update student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

func (s *Server) handleAdminDeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Students.Delete(r.Context(), id); err != nil {
		writeFailure(w, r, err, "delete student")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
