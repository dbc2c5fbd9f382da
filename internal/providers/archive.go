package providers

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
)

// Tour selects which archive dataset to fetch.
type Tour string

const (
	TourATP Tour = "atp"
	TourWTA Tour = "wta"
)

// ArchiveClient fetches the public historical-match archive, which publishes
// per-tour player CSVs. Archive IDs are the numeric player ID behind a tour
// prefix ("A_" / "W_").
type ArchiveClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
	baseURL    string
}

func NewArchiveClient(baseURL string, logger *logrus.Logger) *ArchiveClient {
	return &ArchiveClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: baseURL,
	}
}

func (t Tour) source() models.Source {
	if t == TourWTA {
		return models.SourceWTAArchive
	}
	return models.SourceATPArchive
}

func (t Tour) idPrefix() string {
	if t == TourWTA {
		return "W_"
	}
	return "A_"
}

func (t Tour) gender() string {
	if t == TourWTA {
		return "f"
	}
	return "m"
}

// FetchPlayers downloads and parses one tour's player CSV. Expected columns:
// player_id, name_first, name_last, hand, dob, ioc.
func (c *ArchiveClient) FetchPlayers(ctx context.Context, tour Tour) ([]identity.Input, error) {
	url := fmt.Sprintf("%s/tennis_%s/master/%s_players.csv", c.baseURL, tour, tour)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("archive fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive fetch %s: status %d", url, resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("archive csv header: %w", err)
	}
	col := func(name string) int {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	idCol := col("player_id")
	firstCol := col("name_first")
	lastCol := col("name_last")
	countryCol := col("ioc")
	if idCol < 0 || firstCol < 0 || lastCol < 0 {
		return nil, fmt.Errorf("archive csv missing expected columns: %v", header)
	}

	var inputs []identity.Input
	skipped := 0
	for {
		row, rerr := reader.Read()
		if rerr != nil {
			break
		}
		if idCol >= len(row) || firstCol >= len(row) || lastCol >= len(row) {
			skipped++
			continue
		}

		id := strings.TrimSpace(row[idCol])
		name := strings.TrimSpace(row[firstCol] + " " + row[lastCol])
		if id == "" {
			skipped++
			continue
		}

		country := ""
		if countryCol >= 0 && countryCol < len(row) {
			country = strings.TrimSpace(row[countryCol])
		}

		inputs = append(inputs, identity.Input{
			Source:   tour.source(),
			SourceID: tour.idPrefix() + id,
			Name:     name,
			Country:  country,
			Gender:   tour.gender(),
		})
	}

	if skipped > 0 {
		c.logger.Warnf("Archive %s players: skipped %d malformed rows", tour, skipped)
	}
	return inputs, nil
}
