package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
	"github.com/rocketscienceinc/sabotage-connect4/transport/presenter"
)

type tableUseCase interface {
	NewTable(ctx context.Context) (*entity.Table, error)
	GetTable(ctx context.Context, id string) (*entity.Table, error)
	MakeMove(ctx context.Context, id string, column int) (*entity.Table, entity.MoveResult, error)
	Undo(ctx context.Context, id string) (*entity.Table, error)
	ResetTable(ctx context.Context, id string) (*entity.Table, error)
	CloseTable(ctx context.Context, id string) error
}

type Handlers struct {
	logger *slog.Logger
	tables tableUseCase
}

func NewHandlers(logger *slog.Logger, tables tableUseCase) *Handlers {
	return &Handlers{
		logger: logger.With("component", "rest"),
		tables: tables,
	}
}

type moveRequest struct {
	Column *int `json:"column"`
}

type moveResponse struct {
	Table presenter.Table `json:"table"`
	Move  presenter.Move  `json:"move"`
}

func (that *Handlers) ListRoles(w http.ResponseWriter, _ *http.Request) {
	that.writeJSON(w, http.StatusOK, presenter.Roles())
}

func (that *Handlers) CreateTable(w http.ResponseWriter, r *http.Request) {
	table, err := that.tables.NewTable(r.Context())
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/tables/"+table.ID)
	that.writeJSON(w, http.StatusCreated, presenter.NewTable(table))
}

func (that *Handlers) GetTable(w http.ResponseWriter, r *http.Request) {
	table, err := that.tables.GetTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewTable(table))
}

func (that *Handlers) MakeMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid JSON: %v", err)})
		return
	}

	if req.Column == nil {
		that.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "column is required"})
		return
	}

	table, result, err := that.tables.MakeMove(r.Context(), chi.URLParam(r, "id"), *req.Column)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, moveResponse{
		Table: presenter.NewTable(table),
		Move:  presenter.NewMove(result),
	})
}

func (that *Handlers) Undo(w http.ResponseWriter, r *http.Request) {
	table, err := that.tables.Undo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewTable(table))
}

func (that *Handlers) ResetTable(w http.ResponseWriter, r *http.Request) {
	table, err := that.tables.ResetTable(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	that.writeJSON(w, http.StatusOK, presenter.NewTable(table))
}

func (that *Handlers) CloseTable(w http.ResponseWriter, r *http.Request) {
	if err := that.tables.CloseTable(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
