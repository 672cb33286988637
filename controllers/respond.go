package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/middleware"
	"github.com/aquametrics/aquametrics/otp"
	"github.com/aquametrics/aquametrics/store"
	"github.com/aquametrics/aquametrics/utils"
)

// respondEngineError maps coordinator errors onto the response envelope.
// Ledger errors never show up here: mirroring is decoupled and its failures
// stay on the record's mirror status.
func respondEngineError(ctx *gin.Context, err error) {
	switch {
	case engine.IsValidation(err):
		utils.Error(ctx, http.StatusBadRequest, 40002, err.Error())
	case errors.Is(err, engine.ErrInvalidCredentials):
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid email or password")
	case errors.Is(err, store.ErrEmailTaken):
		utils.Error(ctx, http.StatusConflict, 40901, "user already exists")
	case errors.Is(err, store.ErrNotFound):
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
	case errors.Is(err, store.ErrConflict):
		utils.Error(ctx, http.StatusConflict, 40920, "concurrent update, please retry")
	case errors.Is(err, otp.ErrMismatch):
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid OTP")
	case errors.Is(err, otp.ErrExpired):
		utils.Error(ctx, http.StatusBadRequest, 40061, "OTP expired")
	case errors.Is(err, otp.ErrNotFound):
		utils.Error(ctx, http.StatusBadRequest, 40062, "no OTP pending")
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50000, "server error")
	}
}

// getEmail extracts the authenticated identity set by the auth middleware.
func getEmail(ctx *gin.Context) (string, bool) {
	v, ok := ctx.Get(middleware.ContextEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok && email != ""
}

// getUserID extracts the authenticated user ID set by the auth middleware.
func getUserID(ctx *gin.Context) (uint, bool) {
	v, ok := ctx.Get(middleware.ContextUserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
