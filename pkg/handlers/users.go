package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/marmos91/dittoweb/internal/logger"
	wire "github.com/marmos91/dittoweb/internal/protocol/http"
	"github.com/marmos91/dittoweb/pkg/route"
	"github.com/marmos91/dittoweb/pkg/store/users"
)

// DefaultUserName is inserted when the route binds no name parameter.
const DefaultUserName = "Bob"

// UsersHandlers serves the user demo endpoints from a users.Store.
type UsersHandlers struct {
	store users.Store
}

// NewUsersHandlers binds the handlers to store.
func NewUsersHandlers(store users.Store) *UsersHandlers {
	return &UsersHandlers{store: store}
}

// List responds 200 with every user as a JSON array, oldest first.
func (h *UsersHandlers) List(ctx context.Context, conn net.Conn, _ string, _ route.Params) {
	list, err := h.store.List(ctx)
	if err != nil {
		logger.Error("users.list: %v", err)
		writeStatus(conn, wire.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []*users.User{}
	}
	writeJSON(conn, list)
}

// Insert stores a user named by the "name" parameter (DefaultUserName when the
// route has none) and responds with a status-only 200. A blank name gets 400.
func (h *UsersHandlers) Insert(ctx context.Context, conn net.Conn, _ string, params route.Params) {
	name, ok := params["name"]
	if !ok {
		name = DefaultUserName
	}

	u, err := h.store.Insert(ctx, name)
	switch {
	case errors.Is(err, users.ErrInvalidName):
		writeStatus(conn, wire.StatusBadRequest)
		return
	case err != nil:
		logger.Error("users.insert: %v", err)
		writeStatus(conn, wire.StatusInternalServerError)
		return
	}

	logger.Debug("users.insert: id=%s name=%q", u.ID, u.Name)
	writeStatus(conn, wire.StatusOK)
}
