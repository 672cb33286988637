package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/utils"
)

const leaderboardCacheKey = "cache:leaderboard:top"

// RewardsController exposes the points balance, reward history, the
// leaderboard, and manual point adjustments.
type RewardsController struct {
	engine *engine.Engine
}

// NewRewardsController creates a new controller instance.
func NewRewardsController(e *engine.Engine) *RewardsController {
	return &RewardsController{engine: e}
}

// Rewards returns the authenticated user's points and streak.
func (r *RewardsController) Rewards(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	points, streak, err := r.engine.Rewards(ctx.Request.Context(), email)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"points": points, "streak": streak})
}

// History returns the authenticated user's append-only reward history.
func (r *RewardsController) History(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	entries, err := r.engine.History(ctx.Request.Context(), email)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"reward_history": entries})
}

// Leaderboard returns the top users by points, briefly cached.
func (r *RewardsController) Leaderboard(ctx *gin.Context) {
	if b, ok := utils.CacheGetBytes(leaderboardCacheKey); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	users, err := r.engine.Leaderboard(ctx.Request.Context(), 10)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	type row struct {
		Name   string `json:"name"`
		Points int    `json:"points"`
		Streak int    `json:"streak"`
	}
	rows := make([]row, 0, len(users))
	for _, u := range users {
		rows = append(rows, row{Name: u.Name, Points: u.Points, Streak: u.StreakCount})
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"top": rows}}
	utils.CacheSetJSON(leaderboardCacheKey, wrapper, 30*time.Second)
	utils.Success(ctx, gin.H{"top": rows})
}

// UpdatePoints applies a signed manual adjustment to a user's balance.
func (r *RewardsController) UpdatePoints(ctx *gin.Context) {
	var req struct {
		Email  string `json:"email" binding:"required"`
		Points int    `json:"points" binding:"required"`
		Reason string `json:"reason"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	balance, err := r.engine.ManualPointAdjust(ctx.Request.Context(), req.Email, req.Points, req.Reason)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.InvalidateByPrefix(leaderboardCacheKey)
	utils.Success(ctx, gin.H{"message": "Points updated successfully", "new_balance": balance})
}
