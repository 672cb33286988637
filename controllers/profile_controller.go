package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/rewards"
	"github.com/aquametrics/aquametrics/utils"
)

// ProfileController handles profile edits and account deletion.
type ProfileController struct {
	engine *engine.Engine
}

// NewProfileController creates a new controller instance.
func NewProfileController(e *engine.Engine) *ProfileController {
	return &ProfileController{engine: e}
}

// Edit updates profile fields and awards first-fill / completion bonuses.
func (p *ProfileController) Edit(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Name        string `json:"name"`
		DateOfBirth string `json:"date_of_birth"`
		Gender      string `json:"gender"`
		Mobile      string `json:"mobile"`
		Address     string `json:"address"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	res, err := p.engine.EditProfile(ctx.Request.Context(), email, rewards.ProfileUpdate{
		Name:        req.Name,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Mobile:      req.Mobile,
		Address:     req.Address,
	})
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"points_awarded":   res.PointsAwarded,
		"profile_complete": res.ProfileComplete,
	})
}

// Username resolves a user's display name by ID for public attribution.
func (p *ProfileController) Username(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40011, "invalid user id")
		return
	}
	name, err := p.engine.Username(ctx.Request.Context(), uint(id))
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"username": name})
}

// Delete removes the account, its reward history, and any pending ledger
// mirror work.
func (p *ProfileController) Delete(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	if err := p.engine.DeleteAccount(ctx.Request.Context(), email); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "Account deleted successfully", "deleted": true})
}
