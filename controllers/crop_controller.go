package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aquametrics/aquametrics/engine"
	"github.com/aquametrics/aquametrics/utils"
)

// CropController serves the static water-footprint dataset and records
// consumed products against the user record.
type CropController struct {
	engine *engine.Engine
}

// NewCropController creates a new controller instance.
func NewCropController(e *engine.Engine) *CropController {
	return &CropController{engine: e}
}

// Get looks a crop up by name, case-insensitively.
func (c *CropController) Get(ctx *gin.Context) {
	name := ctx.Param("name")
	crop, ok := utils.FindCrop(name)
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40430, "crop not found")
		return
	}
	utils.Success(ctx, crop)
}

// AddProduct accumulates the crop's water footprint onto the authenticated
// user's record.
func (c *CropController) AddProduct(ctx *gin.Context) {
	email, ok := getEmail(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		CropName string `json:"crop_name" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	crop, found := utils.FindCrop(req.CropName)
	if !found {
		utils.Error(ctx, http.StatusNotFound, 40430, "crop not found")
		return
	}

	total, err := c.engine.AddProduct(ctx.Request.Context(), email, crop.TotalWaterFootprint())
	if err != nil {
		respondEngineError(ctx, err)
		return
	}

	utils.Success(ctx, gin.H{
		"message":                  "Product added successfully!",
		"consumed_water_footprint": total,
	})
}
