package api

import (
	"net/http"

	"github.com/kjannette/maichez-backend/internal/models"
	"github.com/kjannette/maichez-backend/internal/repository"
	"github.com/kjannette/maichez-backend/internal/rules"
)

type createRuleRequest struct {
	Text        string `json:"text" validate:"notblank,max=500"`
	Type        string `json:"type" validate:"omitempty,oneof=buy sell general"`
	Required    bool   `json:"required"`
	OrderNumber int    `json:"orderNumber" validate:"gte=0"`
}

type updateRuleRequest struct {
	Text        *string `json:"text" validate:"omitempty,notblank,max=500"`
	Type        *string `json:"type" validate:"omitempty,oneof=buy sell general"`
	Required    *bool   `json:"required"`
	OrderNumber *int    `json:"orderNumber" validate:"omitempty,gte=1"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := s.deps.Rules.ListByUser(r.Context(), userID)
	if err != nil {
		writeFailure(w, r, err, "fetch rules")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request, userID string) {
	var req createRuleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rule, err := s.deps.Rules.Create(r.Context(), &models.TradeRule{
		UserID:      userID,
		Text:        req.Text,
		Type:        models.RuleType(req.Type),
		Required:    req.Required,
		OrderNumber: req.OrderNumber,
	})
	if err != nil {
		writeFailure(w, r, err, "create rule")
		return
	}
	s.rulesChanged(r, rules.OpInsert, userID, rule.ID)
	writeJSON(w, http.StatusCreated, rule)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateRuleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	u := repository.RuleUpdate{Text: req.Text, Required: req.Required, OrderNumber: req.OrderNumber}
	if req.Type != nil {
		t := models.RuleType(*req.Type)
		u.Type = &t
	}
	rule, err := s.deps.Rules.Update(r.Context(), userID, id, u)
	if err != nil {
		writeFailure(w, r, err, "update rule")
		return
	}
	s.rulesChanged(r, rules.OpUpdate, userID, id)
	writeJSON(w, http.StatusOK, rule)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Rules.Delete(r.Context(), userID, id); err != nil {
		writeFailure(w, r, err, "delete rule")
		return
	}
	s.rulesChanged(r, rules.OpDelete, userID, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) rulesChanged(r *http.Request, op rules.Op, userID, ruleID string) {
	if s.deps.RuleCache == nil {
		return
	}
	s.deps.RuleCache.Apply(r.Context(), rules.Change{Op: op, UserID: userID, RuleID: ruleID})
}
