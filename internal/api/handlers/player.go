package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/internal/services"
	"github.com/jwaldron/tennisiq/pkg/database"
	"github.com/jwaldron/tennisiq/pkg/utils"
)

type PlayerHandler struct {
	db        *database.DB
	cache     *services.CacheService
	analytics *services.AnalyticsService
	resolver  *identity.Resolver

	defaultStalenessDays int
}

func NewPlayerHandler(db *database.DB, cache *services.CacheService, analytics *services.AnalyticsService, resolver *identity.Resolver, defaultStalenessDays int) *PlayerHandler {
	return &PlayerHandler{
		db:                   db,
		cache:                cache,
		analytics:            analytics,
		resolver:             resolver,
		defaultStalenessDays: defaultStalenessDays,
	}
}

// SearchPlayers returns canonical players matching a name fragment
func (h *PlayerHandler) SearchPlayers(c *gin.Context) {
	search := c.Query("search")
	if search == "" {
		utils.SendValidationError(c, "Missing search parameter", "pass ?search=<name>")
		return
	}

	normalized := identity.NormalizeName(search, identity.NormalizeOptions{})

	var players []models.Player
	err := h.db.Model(&models.Player{}).
		Where("LOWER(display_name) LIKE ?", "%"+normalized+"%").
		Order("display_name").
		Limit(50).
		Find(&players).Error
	if err != nil {
		utils.SendInternalError(c, "Failed to search players")
		return
	}

	utils.SendSuccess(c, players)
}

// GetPlayer returns a canonical player with its external identities
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	canonicalID := c.Param("id")

	ctx := context.Background()
	cacheKey := services.PlayerCacheKey(canonicalID)
	var cached models.Player
	if err := h.cache.Get(ctx, cacheKey, &cached); err == nil {
		utils.SendSuccess(c, cached)
		return
	}

	player, err := h.analytics.GetPlayer(canonicalID)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch player")
		return
	}
	if player == nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	h.cache.SetWithRetry(ctx, cacheKey, player, 5*time.Minute, 3)
	utils.SendSuccess(c, player)
}

// ResolvePlayer resolves a single raw source record to a canonical identity
func (h *PlayerHandler) ResolvePlayer(c *gin.Context) {
	var input identity.Input
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.SendValidationError(c, "Invalid resolution request", err.Error())
		return
	}

	result, err := h.resolver.Resolve(input)
	if err != nil {
		utils.SendInternalError(c, "Resolution failed")
		return
	}

	utils.SendSuccess(c, result)
}

// GetPlayerAttribute answers "what was this attribute as of that date"
func (h *PlayerHandler) GetPlayerAttribute(c *gin.Context) {
	canonicalID := c.Param("id")
	attributeType := c.Param("type")

	targetDate, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	stalenessDays, ok := parseIntParam(c, "max_staleness_days", h.defaultStalenessDays)
	if !ok {
		return
	}

	answer, err := h.analytics.AttributeAsOf(context.Background(), canonicalID, attributeType, targetDate, stalenessDays)
	if err != nil {
		utils.SendInternalError(c, "Failed to fetch attribute")
		return
	}

	// answer carries explicit nulls when nothing reliable exists
	utils.SendSuccess(c, answer)
}

// GetPlayerSnapshot returns ranking and rating as of a date
func (h *PlayerHandler) GetPlayerSnapshot(c *gin.Context) {
	canonicalID := c.Param("id")

	targetDate, ok := parseDateParam(c, "date")
	if !ok {
		return
	}
	stalenessDays, ok := parseIntParam(c, "max_staleness_days", h.defaultStalenessDays)
	if !ok {
		return
	}

	snapshot, err := h.analytics.Snapshot(context.Background(), canonicalID, targetDate, stalenessDays)
	if err != nil {
		utils.SendInternalError(c, "Failed to build snapshot")
		return
	}
	if snapshot == nil {
		utils.SendNotFound(c, "Player not found")
		return
	}

	utils.SendSuccess(c, snapshot)
}
