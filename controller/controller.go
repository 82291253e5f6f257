package controller

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	middleware "github.com/Itish41/complytrack/middleware"
	service "github.com/Itish41/complytrack/service"

	"github.com/gin-gonic/gin"
)

// UserIDHeader optionally names the acting user for audited writes.
const UserIDHeader = "X-User-ID"

// respondError maps service errors onto HTTP statuses.
func respondError(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case service.IsValidation(err):
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrSearchDisabled):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		log.Printf("[%s] request_id=%s %v", op, middleware.GetRequestID(ctx), err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
	}
}

func badRequest(ctx *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if err != nil {
		body["details"] = err.Error()
	}
	ctx.JSON(http.StatusBadRequest, body)
}

// idParam reads a positive integer path parameter. On failure it writes a
// 400 and returns false.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(ctx, fmt.Sprintf("invalid %s", name), nil)
		return 0, false
	}
	return uint(id), true
}

func intQuery(ctx *gin.Context, name string, def int) (int, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(ctx, fmt.Sprintf("query parameter '%s' must be an integer", name), nil)
		return 0, false
	}
	return n, true
}

func optionalUintQuery(ctx *gin.Context, name string) (*uint, bool) {
	raw := ctx.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		badRequest(ctx, fmt.Sprintf("query parameter '%s' must be a positive integer", name), nil)
		return nil, false
	}
	id := uint(n)
	return &id, true
}

// actorFrom builds the audit actor from the X-User-ID header and client IP.
func actorFrom(ctx *gin.Context) (service.Actor, bool) {
	actor := service.Actor{IP: ctx.ClientIP()}
	raw := ctx.GetHeader(UserIDHeader)
	if raw == "" {
		return actor, true
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		badRequest(ctx, "invalid "+UserIDHeader+" header", nil)
		return actor, false
	}
	id := uint(n)
	actor.UserID = &id
	return actor, true
}
