package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/jwaldron/tennisiq/internal/identity"
	"github.com/jwaldron/tennisiq/internal/models"
)

// RatedPlayer is one player record fetched from the commercial rating
// provider, ready to hand to the importer.
type RatedPlayer struct {
	Input  identity.Input
	Rating float64
	Date   time.Time
}

// RatingsClient talks to the commercial rating provider's API. Calls are
// rate-limited and wrapped in a circuit breaker so a flapping provider does
// not stall import runs.
type RatingsClient struct {
	httpClient  *http.Client
	logger      *logrus.Logger
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	baseURL     string
	apiKey      string
}

// NewRatingsClient creates a new rating provider client.
// requestsPerMinute throttles outgoing calls; breakerThreshold is the number
// of consecutive failures that opens the circuit.
func NewRatingsClient(baseURL, apiKey string, requestsPerMinute, breakerThreshold int, logger *logrus.Logger) *RatingsClient {
	if requestsPerMinute < 1 {
		requestsPerMinute = 30
	}
	settings := gobreaker.Settings{
		Name:    "ratings-api",
		Timeout: 60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(breakerThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	}

	return &RatingsClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:      logger,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
		breaker:     gobreaker.NewCircuitBreaker(settings),
		baseURL:     baseURL,
		apiKey:      apiKey,
	}
}

// Rating provider API response structures
type ratingsPlayerResponse struct {
	Players []ratingsPlayer `json:"players"`
}

type ratingsPlayer struct {
	ID      int     `json:"id"`
	Name    string  `json:"displayName"`
	Country string  `json:"nationality"`
	Gender  string  `json:"gender"`
	Rating  float64 `json:"rating"`
	AsOf    string  `json:"ratingDate"` // "YYYY-MM-DD"
}

// FetchRatedPlayers pulls the current rated-player list.
func (c *RatingsClient) FetchRatedPlayers(ctx context.Context) ([]RatedPlayer, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, fmt.Sprintf("%s/players", c.baseURL))
	})
	if err != nil {
		return nil, fmt.Errorf("ratings API: %w", err)
	}

	var resp ratingsPlayerResponse
	if err := json.Unmarshal(body.([]byte), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode ratings response: %w", err)
	}

	players := make([]RatedPlayer, 0, len(resp.Players))
	for _, p := range resp.Players {
		asOf, perr := time.Parse("2006-01-02", p.AsOf)
		if perr != nil {
			c.logger.Warnf("Skipping rated player %d with bad date %q", p.ID, p.AsOf)
			continue
		}
		players = append(players, RatedPlayer{
			Input: identity.Input{
				Source:   models.SourceRatings,
				SourceID: strconv.Itoa(p.ID),
				Name:     p.Name,
				Country:  p.Country,
				Gender:   p.Gender,
			},
			Rating: p.Rating,
			Date:   asOf,
		})
	}

	return players, nil
}

func (c *RatingsClient) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}
