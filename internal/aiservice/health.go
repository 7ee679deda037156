package aiservice

import "context"

// Health is the service's self-reported status.
type Health struct {
	Status           string `json:"status"`
	Message          string `json:"message"`
	OpenAIConfigured bool   `json:"openai_configured"`
}

// CheckHealth queries the service's health endpoint.
func (c *Client) CheckHealth(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.getJSON(ctx, "/health", &resp); err != nil {
		return nil, err
	}

	return &resp, nil
}
