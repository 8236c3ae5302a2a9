package registration_client

import (
	"github.com/mcdev12/regatta/go/clients"
)

type RegistrationClient struct {
	*clients.BaseClient
}

func NewRegistrationClient(baseURL, apiKey string) *RegistrationClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := &RegistrationClient{
		BaseClient: clients.NewBaseClient(baseURL),
	}

	client.SetHeader(APIKeyHeader, apiKey)
	client.SetHeader("Accept", "application/json")

	return client
}
