package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/models"
	"github.com/jwaldron/tennisiq/pkg/config"
	"github.com/jwaldron/tennisiq/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.Player{},
		&models.ExternalIdentity{},
		&models.PlayerAttribute{},
		&models.ImportJob{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_players_display_name_lower ON players(LOWER(display_name))",
		"CREATE INDEX IF NOT EXISTS idx_external_identities_player ON external_identities(player_id)",
		"CREATE INDEX IF NOT EXISTS idx_player_attributes_series ON player_attributes(player_id, attribute_type, date DESC)",
		"CREATE INDEX IF NOT EXISTS idx_import_jobs_source ON import_jobs(source)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"import_jobs",
		"player_attributes",
		"external_identities",
		"players",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	day := func(s string) time.Time {
		d, _ := time.Parse("2006-01-02", s)
		return d
	}

	// Sample canonical players with identities across sources
	players := []struct {
		player     models.Player
		identities []models.ExternalIdentity
		rankings   []models.PlayerAttribute
	}{
		{
			player: models.Player{DisplayName: "Gabriel Diallo", Country: "CAN", Gender: "m"},
			identities: []models.ExternalIdentity{
				{Source: models.SourceRatings, SourceID: "209113", MatchedBy: models.MatchedCreated},
				{Source: models.SourceATPArchive, SourceID: "A_209113", MatchedBy: models.MatchedExact},
			},
			rankings: []models.PlayerAttribute{
				{AttributeType: models.AttributeRanking, Date: day("2024-06-10"), Value: 98},
				{AttributeType: models.AttributeRating, Date: day("2024-06-10"), Value: 14.1},
			},
		},
		{
			player: models.Player{DisplayName: "Iga Swiatek", Country: "POL", Gender: "f"},
			identities: []models.ExternalIdentity{
				{Source: models.SourceRatings, SourceID: "217512", MatchedBy: models.MatchedCreated},
				{Source: models.SourceWTAArchive, SourceID: "W_217512", MatchedBy: models.MatchedExact},
			},
			rankings: []models.PlayerAttribute{
				{AttributeType: models.AttributeRanking, Date: day("2024-06-10"), Value: 1},
			},
		},
	}

	for _, seed := range players {
		player := seed.player
		if err := db.Create(&player).Error; err != nil {
			return fmt.Errorf("failed to seed player %s: %w", player.DisplayName, err)
		}
		for _, ident := range seed.identities {
			ident.PlayerID = player.ID
			if err := db.Create(&ident).Error; err != nil {
				return fmt.Errorf("failed to seed identity %s/%s: %w", ident.Source, ident.SourceID, err)
			}
		}
		for _, attr := range seed.rankings {
			attr.PlayerID = player.ID
			if err := db.Create(&attr).Error; err != nil {
				return fmt.Errorf("failed to seed attribute for %s: %w", player.DisplayName, err)
			}
		}
	}

	logrus.Infof("Seeded %d players", len(players))
	return nil
}
