package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/SoSmDe/Market-Pulse-bot/internal/models"
	"github.com/SoSmDe/Market-Pulse-bot/internal/normalize"
)

const defaultDefiLlamaURL = "https://api.llama.fi/raises"

// DefiLlamaSource pulls structured fundraising rounds from the DefiLlama
// raises API. It is the authoritative feed: rounds it reports carry a
// confidence bonus over text-extracted ones.
type DefiLlamaSource struct {
	url    string
	window time.Duration
	client *http.Client
	now    func() time.Time
}

type defiLlamaResponse struct {
	Raises []struct {
		Name           string   `json:"name"`
		Amount         *float64 `json:"amount"`
		Round          string   `json:"round"`
		LeadInvestors  []string `json:"leadInvestors"`
		OtherInvestors []string `json:"otherInvestors"`
		Category       string   `json:"category"`
		Date           int64    `json:"date"`
		Source         string   `json:"source"`
	} `json:"raises"`
}

// NewDefiLlamaSource builds the API client for the given recency window.
func NewDefiLlamaSource(window time.Duration) *DefiLlamaSource {
	return &DefiLlamaSource{
		url:    defaultDefiLlamaURL,
		window: window,
		client: &http.Client{Timeout: 30 * time.Second},
		now:    time.Now,
	}
}

// FetchRounds returns rounds announced inside the window. The full
// result set is scanned; the API's apparent date ordering is not a
// documented guarantee and is not relied on.
func (s *DefiLlamaSource) FetchRounds(ctx context.Context) ([]models.FundraisingRound, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("defillama returned status %d", resp.StatusCode)
	}

	var payload defiLlamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}

	cutoff := s.now().Add(-s.window)

	var rounds []models.FundraisingRound
	for _, r := range payload.Raises {
		if r.Date == 0 {
			continue
		}
		date := time.Unix(r.Date, 0)
		if !date.After(cutoff) {
			continue
		}

		project := r.Name
		if project == "" {
			project = "Unknown"
		}
		roundType := r.Round
		if roundType == "" {
			roundType = "Unknown"
		}

		rounds = append(rounds, models.FundraisingRound{
			Project:        project,
			Amount:         r.Amount,
			RoundType:      roundType,
			LeadInvestors:  r.LeadInvestors,
			OtherInvestors: r.OtherInvestors,
			Category:       r.Category,
			Date:           date,
			SourceURL:      normalize.CanonicalURL(r.Source),
			Source:         "defillama",
		})
	}

	return rounds, nil
}

func (s *DefiLlamaSource) Name() string {
	return "defillama"
}
