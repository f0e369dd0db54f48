package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TriviaAPIClient integrates with the-trivia-api.com. The API key is optional.
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/api"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

type TriviaAPIQuestion struct {
	ID         string `json:"id"`
	Category   string `json:"category"`
	Question   string `json:"question"`
	Difficulty string `json:"difficulty"`
	Correct    string `json:"correctAnswer"`
}

// Fetch requests up to amount questions. category is a slug such as "science".
func (c *TriviaAPIClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]TriviaAPIQuestion, error) {
	values := url.Values{}
	values.Set("limit", fmt.Sprint(amount))
	if category != "" {
		values.Set("categories", category)
	}
	if difficulty != "" {
		values.Set("difficulty", difficulty)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/questions?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triviaapi non-200: %d", resp.StatusCode)
	}

	var payload []TriviaAPIQuestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode triviaapi response: %w", err)
	}
	return payload, nil
}
