package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/aquametrics/aquametrics/models"
	"github.com/aquametrics/aquametrics/utils"
)

// PostController handles community text posts. Posts sit outside the
// reward path and talk to the database directly.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new controller instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// Create stores a sanitized text post for the authenticated user.
func (p *PostController) Create(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "text content is required")
		return
	}

	text := strings.TrimSpace(utils.Sanitize(req.Text))
	if text == "" {
		utils.Error(ctx, http.StatusBadRequest, 40070, "text content is required")
		return
	}

	post := models.Post{UserID: userID, Text: text}
	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50070, "error creating post")
		return
	}

	utils.Created(ctx, "Post created successfully", gin.H{"post": post})
}

// List returns all posts, newest first, with their authors' names.
func (p *PostController) List(ctx *gin.Context) {
	var posts []models.Post
	if err := p.db.Preload("User").Order("created_at DESC").Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50071, "error fetching posts")
		return
	}

	type row struct {
		ID        uint   `json:"id"`
		Text      string `json:"text"`
		Name      string `json:"name"`
		CreatedAt string `json:"created_at"`
	}
	rows := make([]row, 0, len(posts))
	for _, post := range posts {
		name := "Anonymous"
		if post.User != nil {
			name = post.User.Name
		}
		rows = append(rows, row{
			ID:        post.ID,
			Text:      post.Text,
			Name:      name,
			CreatedAt: post.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	utils.Success(ctx, gin.H{"posts": rows})
}
