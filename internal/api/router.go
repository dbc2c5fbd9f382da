package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/api/handlers"
	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/providers"
	"github.com/jwaldron/tennisiq/internal/services"
	"github.com/jwaldron/tennisiq/pkg/config"
	"github.com/jwaldron/tennisiq/pkg/database"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, db *database.DB, cache *services.CacheService, cfg *config.Config, logger *logrus.Logger) {
	// Initialize services
	store := identity.NewGormStore(db.DB)
	scorer := identity.NewScorer(cfg.SimilarityAlgorithm)
	resolver := identity.NewResolver(store, scorer, cfg.FuzzyMatchThreshold, logger)
	analytics := services.NewAnalyticsService(store, cache, logger)
	importer := services.NewImporterService(db, store, scorer, cfg.FuzzyMatchThreshold, cfg.ResolveWorkers, logger)

	// Upstream provider clients
	ratingsClient := providers.NewRatingsClient(cfg.RatingsAPIBaseURL, cfg.RatingsAPIKey, cfg.RatingsRateLimit, cfg.CircuitBreakerThreshold, logger)
	archiveClient := providers.NewArchiveClient(cfg.ArchiveBaseURL, logger)
	rankingsClient := providers.NewRankingsClient(cfg.RankingsFeedURL, logger)
	refresher := services.NewRefreshService(ratingsClient, archiveClient, rankingsClient, importer, logger)

	// Initialize handlers
	playerHandler := handlers.NewPlayerHandler(db, cache, analytics, resolver, cfg.MaxStalenessDays)
	importHandler := handlers.NewImportHandler(importer, refresher)

	// Player endpoints
	group.GET("/players", playerHandler.SearchPlayers)
	group.GET("/players/:id", playerHandler.GetPlayer)
	group.GET("/players/:id/snapshot", playerHandler.GetPlayerSnapshot)
	group.GET("/players/:id/attributes/:type", playerHandler.GetPlayerAttribute)
	group.POST("/players/resolve", playerHandler.ResolvePlayer)

	// Import endpoints (should be protected upstream in production)
	group.POST("/imports", importHandler.BatchResolve)
	group.POST("/imports/rankings", importHandler.ImportRankings)
	group.POST("/imports/refresh", importHandler.RefreshFromSource)
}
