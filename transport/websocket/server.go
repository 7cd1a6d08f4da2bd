package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

type tableUseCase interface {
	GetTable(ctx context.Context, id string) (*entity.Table, error)
	MakeMove(ctx context.Context, id string, column int) (*entity.Table, entity.MoveResult, error)
	Undo(ctx context.Context, id string) (*entity.Table, error)
	ResetTable(ctx context.Context, id string) (*entity.Table, error)
}

type handlerFunc func(ctx context.Context, tableID string, payload Payload) error

// Server streams one table per connection. Accepted actions change the table
// through the use case, which publishes the new state back via the Hub.
type Server struct {
	logger   *slog.Logger
	tables   tableUseCase
	hub      *Hub
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func NewServer(logger *slog.Logger, tables tableUseCase, hub *Hub) *Server {
	that := &Server{
		logger: logger.With("component", "websocket"),
		tables: tables,
		hub:    hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// hot-seat screens are served from anywhere
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	that.handlers = map[string]handlerFunc{
		ActionMove:  that.handleMove,
		ActionUndo:  that.handleUndo,
		ActionReset: that.handleReset,
	}

	return that
}

func (that *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tableID := chi.URLParam(r, "id")
	log := that.logger.With("tableID", tableID)

	// subscribe before loading, so no change falls between the snapshot and the feed
	sub := that.hub.subscribe(tableID)

	table, err := that.tables.GetTable(r.Context(), tableID)
	if err != nil {
		that.hub.unsubscribe(sub)

		if errors.Is(err, apperror.ErrTableNotFound) {
			http.Error(w, apperror.ErrTableNotFound.Error(), http.StatusNotFound)
			return
		}

		log.Error("failed to load table", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.hub.unsubscribe(sub)
		log.Warn("failed to upgrade connection", "error", err)

		return
	}

	log.Info("screen connected", "remote", conn.RemoteAddr().String())

	that.hub.sendState(sub, table)

	go that.writePump(conn, sub)

	that.readPump(r.Context(), conn, sub)

	that.hub.unsubscribe(sub)
	log.Info("screen disconnected")
}

func (that *Server) readPump(ctx context.Context, conn *websocket.Conn, sub *subscriber) {
	log := that.logger.With("method", "readPump", "tableID", sub.tableID)

	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("connection closed unexpectedly", "error", err)
			}

			return
		}

		var msg Message
		if err = json.Unmarshal(data, &msg); err != nil {
			that.replyError(sub, "", "invalid message")
			continue
		}

		handler, ok := that.handlers[msg.Action]
		if !ok {
			that.replyError(sub, msg.Action, fmt.Sprintf("unknown action %q", msg.Action))
			continue
		}

		var payload Payload
		if len(msg.Payload) > 0 {
			if err = json.Unmarshal(msg.Payload, &payload); err != nil {
				that.replyError(sub, msg.Action, "invalid payload")
				continue
			}
		}

		if err = handler(ctx, sub.tableID, payload); err != nil {
			log.Debug("action rejected", "action", msg.Action, "error", err)
			that.replyError(sub, msg.Action, errorText(err))
		}
	}
}

func (that *Server) writePump(conn *websocket.Conn, sub *subscriber) {
	log := that.logger.With("method", "writePump", "tableID", sub.tableID)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug("failed to write message", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))

			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (that *Server) replyError(sub *subscriber, action, text string) {
	data, err := encodeMessage(action, Payload{Error: text})
	if err != nil {
		that.logger.Error("failed to encode error", "error", err)
		return
	}

	that.hub.deliver(sub, data)
}

func (that *Server) handleMove(ctx context.Context, tableID string, payload Payload) error {
	if payload.Column == nil {
		return errColumnRequired
	}

	_, _, err := that.tables.MakeMove(ctx, tableID, *payload.Column)

	return err
}

func (that *Server) handleUndo(ctx context.Context, tableID string, _ Payload) error {
	_, err := that.tables.Undo(ctx, tableID)
	return err
}

func (that *Server) handleReset(ctx context.Context, tableID string, _ Payload) error {
	_, err := that.tables.ResetTable(ctx, tableID)
	return err
}

var errColumnRequired = errors.New("column is required")

// errorText keeps domain errors readable and hides everything else.
func errorText(err error) string {
	switch {
	case errors.Is(err, errColumnRequired),
		errors.Is(err, entity.ErrInvalidColumn),
		errors.Is(err, apperror.ErrColumnFull),
		errors.Is(err, apperror.ErrMoveAfterGameOver),
		errors.Is(err, apperror.ErrNothingToUndo),
		errors.Is(err, apperror.ErrTableNotFound),
		errors.Is(err, apperror.ErrTableConflict):
		return err.Error()
	default:
		return "internal error"
	}
}
