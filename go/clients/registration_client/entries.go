package registration_client

import (
	"context"
	"encoding/json"
	"fmt"
)

type Entry struct {
	ID         string `json:"id"`
	SailNumber string `json:"sail_number"`
	BoatName   string `json:"boat_name"`
	ClassName  string `json:"class_name"`
	Skipper    string `json:"skipper"`
	PaidUp     bool   `json:"paid_up"`
	Withdrawn  bool   `json:"withdrawn"`
}

type EntriesResponse struct {
	RegattaID string                 `json:"regatta_id"`
	Errors    interface{}            `json:"errors"`
	Results   int                    `json:"results"`
	Meta      map[string]interface{} `json:"meta"`
	Response  []Entry                `json:"response"`
}

// GetEntries fetches the full entry list for a regatta from the portal.
func (c *RegistrationClient) GetEntries(ctx context.Context, regattaID string) ([]Entry, error) {
	endpoint := fmt.Sprintf("%s?regatta=%s", EntriesEndpoint, regattaID)
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}

	var response EntriesResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}

	if response.Errors != nil {
		if errMap, ok := response.Errors.(map[string]interface{}); ok && len(errMap) > 0 {
			return nil, fmt.Errorf("API returned errors: %v", response.Errors)
		}
	}

	return response.Response, nil
}

// Eligible reports whether a portal entry may start races: paid up and not
// withdrawn.
func (e Entry) Eligible() bool {
	return e.PaidUp && !e.Withdrawn
}
