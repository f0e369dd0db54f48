package external

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"
)

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// OpenTDBQuestion is a single result with HTML entities already decoded.
type OpenTDBQuestion struct {
	Category      string `json:"category"`
	Type          string `json:"type"`
	Difficulty    string `json:"difficulty"`
	Question      string `json:"question"`
	CorrectAnswer string `json:"correct_answer"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

// Fetch requests amount questions. category is the numeric OpenTDB category id
// and may be empty, as may difficulty.
func (c *OpenTDBClient) Fetch(ctx context.Context, amount int, category, difficulty string) ([]OpenTDBQuestion, error) {
	values := url.Values{}
	values.Set("amount", fmt.Sprint(amount))
	if category != "" {
		values.Set("category", category)
	}
	if difficulty != "" {
		values.Set("difficulty", difficulty)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/api.php?%s", c.baseURL, values.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opentdb response: %w", err)
	}
	// 1 = not enough questions for the query
	if payload.ResponseCode != 0 && payload.ResponseCode != 1 {
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}

	for i := range payload.Results {
		r := &payload.Results[i]
		r.Category = html.UnescapeString(r.Category)
		r.Question = html.UnescapeString(r.Question)
		r.CorrectAnswer = html.UnescapeString(r.CorrectAnswer)
	}
	return payload.Results, nil
}
