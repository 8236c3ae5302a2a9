package registration_client

const (
	// Base URL
	DefaultBaseURL = "https://portal.sailregattas.example.com/api/v1"

	// API Endpoints
	EntriesEndpoint  = "/entries"
	RegattasEndpoint = "/regattas"

	// Headers
	APIKeyHeader = "X-Portal-Key"
)
