package handlers

import (
	"net/http"
	"time"

	"duoqueue-dating-app/internal/config"
	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProfileHandler struct {
	db      *gorm.DB
	storage *services.StorageService
	cfg     *config.Config
}

type UpdateProfileRequest struct {
	Nickname       string   `json:"nickname,omitempty"`
	Bio            *string  `json:"bio,omitempty"`
	Country        *string  `json:"country,omitempty"`
	City           *string  `json:"city,omitempty"`
	CurrentRank    string   `json:"current_rank,omitempty" binding:"omitempty,rank"`
	FavoriteHeroes []string `json:"favorite_heroes,omitempty" binding:"omitempty,max=3"`
	FavoriteLines  []string `json:"favorite_lines,omitempty" binding:"omitempty,max=3,dive,lane"`
	DeviceToken    *string  `json:"device_token,omitempty"`
}

type UpdateFiltersRequest struct {
	MinAge            int      `json:"min_age" binding:"required,min=18"`
	MaxAge            int      `json:"max_age" binding:"required,max=99,gtefield=MinAge"`
	SelectedRanks     []string `json:"selected_ranks" binding:"dive,rank"`
	SelectedCities    []string `json:"selected_cities"`
	SelectedLanes     []string `json:"selected_lanes" binding:"dive,lane"`
	SelectedHeroes    []string `json:"selected_heroes"`
	CompatibilityMode bool     `json:"compatibility_mode"`
}

func NewProfileHandler(db *gorm.DB, storage *services.StorageService, cfg *config.Config) *ProfileHandler {
	return &ProfileHandler{db: db, storage: storage, cfg: cfg}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var profile models.Profile
	if err := h.db.First(&profile, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var profile models.Profile
	if err := h.db.First(&profile, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	if req.Nickname != "" {
		profile.Nickname = req.Nickname
	}
	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.Country != nil {
		profile.Country = *req.Country
	}
	if req.City != nil {
		profile.City = *req.City
	}
	if req.CurrentRank != "" {
		profile.CurrentRank = req.CurrentRank
	}
	if req.FavoriteHeroes != nil {
		profile.FavoriteHeroes = req.FavoriteHeroes
	}
	if req.FavoriteLines != nil {
		profile.FavoriteLines = req.FavoriteLines
	}
	if req.DeviceToken != nil {
		profile.DeviceToken = req.DeviceToken
	}
	profile.LastActiveAt = time.Now().UTC()

	if err := h.db.Save(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

func (h *ProfileHandler) GetFilters(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var prefs models.FilterPreference
	if err := h.db.Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		// No saved filters yet; hand back the defaults.
		prefs = models.FilterPreference{UserID: userID.(uint), MinAge: 18, MaxAge: 99}
	}

	c.JSON(http.StatusOK, gin.H{"filters": prefs})
}

func (h *ProfileHandler) UpdateFilters(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req UpdateFiltersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prefs := models.FilterPreference{UserID: userID.(uint)}
	h.db.Where("user_id = ?", userID).First(&prefs)

	prefs.MinAge = req.MinAge
	prefs.MaxAge = req.MaxAge
	prefs.SelectedRanks = req.SelectedRanks
	prefs.SelectedCities = req.SelectedCities
	prefs.SelectedLanes = req.SelectedLanes
	prefs.SelectedHeroes = req.SelectedHeroes
	prefs.CompatibilityMode = req.CompatibilityMode

	if err := h.db.Save(&prefs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save filters"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filters": prefs})
}

func (h *ProfileHandler) UploadPhoto(c *gin.Context) {
	userID, _ := c.Get("user_id")

	file, header, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file required"})
		return
	}
	defer file.Close()

	if header.Size > h.cfg.MaxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return
	}

	contentType := header.Header.Get("Content-Type")
	allowed := false
	for _, t := range h.cfg.AllowedImageTypes {
		if t == contentType {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image type"})
		return
	}

	filename := services.GenerateUniqueFilename(header.Filename)
	url, err := h.storage.UploadFile(c.Request.Context(), file, filename, contentType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}

	if err := h.db.Model(&models.Profile{}).Where("id = ?", userID).
		UpdateColumn("avatar_url", url).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar_url": url})
}

func (h *ProfileHandler) DeletePhoto(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var profile models.Profile
	if err := h.db.First(&profile, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}
	if profile.AvatarURL == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No photo to delete"})
		return
	}

	if err := h.storage.DeleteFile(c.Request.Context(), *profile.AvatarURL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete photo"})
		return
	}

	h.db.Model(&profile).UpdateColumn("avatar_url", nil)
	c.JSON(http.StatusOK, gin.H{"message": "Photo deleted"})
}
