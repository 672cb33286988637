package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/utils"
)

const sessionTokenTTL = 24 * time.Hour

// AuthController handles registration, login, and the OTP verification
// cycle. All state transitions go through the reconciliation engine; this
// layer only shapes requests and responses.
type AuthController struct {
	engine *engine.Engine
}

// NewAuthController creates a new controller instance.
func NewAuthController(e *engine.Engine) *AuthController {
	return &AuthController{engine: e}
}

// Register creates an account and mails the verification OTP.
func (a *AuthController) Register(ctx *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	res, err := a.engine.Register(ctx.Request.Context(), strings.TrimSpace(req.Name), req.Email, req.Password)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.Created(ctx, "User registered successfully. OTP sent to email for verification.",
		gin.H{"email": res.Email, "pending_verification": res.PendingVerification})
}

// Login verifies credentials, applies the daily streak reward, and issues a
// session token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40003, "invalid request payload")
		return
	}

	res, err := a.engine.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	token, err := utils.GenerateToken(res.UserID, strings.ToLower(strings.TrimSpace(req.Email)), sessionTokenTTL)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token":          token,
		"streak":         res.Streak,
		"points":         res.Points,
		"points_awarded": res.PointsAwarded,
		"name":           res.Name,
	})
}

// ForgotPassword issues a password-reset OTP to a known identity.
func (a *AuthController) ForgotPassword(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, "invalid request payload")
		return
	}

	if err := a.engine.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "OTP sent to email"})
}

// VerifyOtp validates an OTP and activates the account.
func (a *AuthController) VerifyOtp(ctx *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		Otp   string `json:"otp" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40005, "invalid request payload")
		return
	}

	if err := a.engine.VerifyOtp(ctx.Request.Context(), req.Email, strings.TrimSpace(req.Otp)); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "OTP verified successfully. Account activated.", "verified": true})
}

// ResetPassword replaces the credential after an OTP cycle.
func (a *AuthController) ResetPassword(ctx *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid request payload")
		return
	}

	if err := a.engine.ResetPassword(ctx.Request.Context(), req.Email, req.NewPassword); err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"message": "Password reset successful"})
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	authHeader := ctx.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 {
		utils.Error(ctx, http.StatusUnauthorized, 40107, "invalid authorization header")
		return
	}

	token := strings.TrimSpace(parts[1])
	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(sessionTokenTTL)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user's record snapshot.
func (a *AuthController) Me(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	rec, err := a.engine.Get(ctx.Request.Context(), email)
	if err != nil {
		respondEngineError(ctx, err)
		return
	}
	utils.Success(ctx, rec)
}
