package api

import (
	"net/http"

	"github.com/kjannette/maichez-backend/internal/repository"
)

type createTodoRequest struct {
	Title     string `json:"title" validate:"notblank,max=500"`
	Completed bool   `json:"completed"`
}

type updateTodoRequest struct {
	Title     *string `json:"title" validate:"omitempty,notblank,max=500"`
	Completed *bool   `json:"completed"`
}

type toggleTodosRequest struct {
	Completed bool `json:"completed"`
}

type countResponse struct {
	Updated int64 `json:"updated"`
}

func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request, userID string) {
	todos, err := s.deps.Todos.ListByUser(r.Context(), userID)
	if err != nil {
		writeFailure(w, r, err, "fetch todos")
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request, userID string) {
	var req createTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	todo, err := s.deps.Todos.Create(r.Context(), userID, req.Title, req.Completed)
	if err != nil {
		writeFailure(w, r, err, "create todo")
		return
	}
	writeJSON(w, http.StatusCreated, todo)
}

func (s *Server) handleUpdateTodo(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req updateTodoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	todo, err := s.deps.Todos.Update(r.Context(), userID, id,
		repository.TodoUpdate{Title: req.Title, Completed: req.Completed})
	if err != nil {
		writeFailure(w, r, err, "update todo")
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request, userID string) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Todos.Delete(r.Context(), userID, id); err != nil {
		writeFailure(w, r, err, "delete todo")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleTodos(w http.ResponseWriter, r *http.Request, userID string) {
	var req toggleTodosRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	n, err := s.deps.Todos.ToggleAll(r.Context(), userID, req.Completed)
	if err != nil {
		writeFailure(w, r, err, "toggle todos")
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Updated: n})
}

func (s *Server) handleClearCompletedTodos(w http.ResponseWriter, r *http.Request, userID string) {
	n, err := s.deps.Todos.ClearCompleted(r.Context(), userID)
	if err != nil {
		writeFailure(w, r, err, "clear completed todos")
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Updated: n})
}
