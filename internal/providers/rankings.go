package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RankingRow is one entry of a fetched weekly snapshot.
type RankingRow struct {
	Name    string
	Rank    float64
	Points  float64
	Country string
}

// RankingsClient fetches the derived weekly ranking snapshots. The feed keys
// players by name only, which is why resolution has to run on import.
type RankingsClient struct {
	httpClient *http.Client
	logger     *logrus.Logger
	feedURL    string
}

func NewRankingsClient(feedURL string, logger *logrus.Logger) *RankingsClient {
	return &RankingsClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		feedURL: feedURL,
	}
}

type rankingFeedResponse struct {
	Week     string             `json:"week"` // "YYYY-MM-DD", the Monday of the snapshot
	Rankings []rankingFeedEntry `json:"rankings"`
}

type rankingFeedEntry struct {
	Rank    int     `json:"rank"`
	Player  string  `json:"player"` // "Last, First"
	Points  float64 `json:"points"`
	Country string  `json:"country"`
}

// FetchSnapshot pulls the latest weekly snapshot.
func (c *RankingsClient) FetchSnapshot(ctx context.Context) (time.Time, []RankingRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return time.Time{}, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("rankings feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, nil, fmt.Errorf("rankings feed: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return time.Time{}, nil, err
	}

	var feed rankingFeedResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return time.Time{}, nil, fmt.Errorf("failed to decode rankings feed: %w", err)
	}

	week, err := time.Parse("2006-01-02", feed.Week)
	if err != nil {
		return time.Time{}, nil, fmt.Errorf("rankings feed has bad week %q: %w", feed.Week, err)
	}

	entries := make([]RankingRow, 0, len(feed.Rankings))
	for _, r := range feed.Rankings {
		if r.Player == "" {
			continue
		}
		entries = append(entries, RankingRow{
			Name:    r.Player,
			Rank:    float64(r.Rank),
			Points:  r.Points,
			Country: r.Country,
		})
	}

	c.logger.Infof("Fetched ranking snapshot for week %s with %d entries", feed.Week, len(entries))
	return week, entries, nil
}
