package handlers

import (
	"context"
	"encoding/json"
	"net"

	"github.com/marmos91/dittoweb/internal/logger"
	wire "github.com/marmos91/dittoweb/internal/protocol/http"
	"github.com/marmos91/dittoweb/pkg/route"
)

// Params responds 200 with the bound path parameters as a JSON object.
func Params(_ context.Context, conn net.Conn, _ string, params route.Params) {
	writeJSON(conn, params)
}

// Headers requires a Host header and responds 200 with every request header as
// a JSON object. A request without Host gets the 400 from ExpectHeaders.
func Headers(_ context.Context, conn net.Conn, request string, _ route.Params) {
	headers := wire.ParseHeaders(request)

	ok, err := wire.ExpectHeaders(conn, headers, "Host")
	if err != nil {
		logger.Debug("headers: write response: %v", err)
		return
	}
	if !ok {
		return
	}
	writeJSON(conn, headers)
}

// writeJSON responds 200 application/json, or a status-only 500 when v cannot
// be encoded.
func writeJSON(conn net.Conn, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.Error("encode JSON response: %v", err)
		if err := wire.WriteStatus(conn, wire.StatusInternalServerError); err != nil {
			logger.Debug("write response: %v", err)
		}
		return
	}

	if err := wire.WriteContent(conn, wire.StatusOK, wire.ContentTypeJSON, body); err != nil {
		logger.Debug("write response: %v", err)
	}
}

// writeStatus writes a status-only response, logging write failures at DEBUG.
func writeStatus(conn net.Conn, status int) {
	if err := wire.WriteStatus(conn, status); err != nil {
		logger.Debug("write response: %v", err)
	}
}
