package clients

// RegistrationSource represents different entry-list providers
type RegistrationSource string

const (
	// RegistrationSourcePortal represents the club's online registration portal
	RegistrationSourcePortal RegistrationSource = "portal"

	// RegistrationSourceCSV represents a CSV snapshot import
	RegistrationSourceCSV RegistrationSource = "csv"

	// RegistrationSourceManual represents manually entered entries
	RegistrationSourceManual RegistrationSource = "manual"
)

// RegistrationSourceConfig holds configuration for registration sources
type RegistrationSourceConfig struct {
	Source      RegistrationSource `json:"source"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Priority    int                `json:"priority"` // Higher priority sources override lower ones
	Active      bool               `json:"active"`
}

// GetRegistrationSources returns all configured registration sources
func GetRegistrationSources() map[RegistrationSource]RegistrationSourceConfig {
	return map[RegistrationSource]RegistrationSourceConfig{
		RegistrationSourcePortal: {
			Source:      RegistrationSourcePortal,
			Name:        "Registration Portal",
			Description: "Club online registration portal",
			Priority:    100,
			Active:      true,
		},
		RegistrationSourceCSV: {
			Source:      RegistrationSourceCSV,
			Name:        "CSV Import",
			Description: "Entry list snapshot imported from CSV",
			Priority:    50,
			Active:      false,
		},
		RegistrationSourceManual: {
			Source:      RegistrationSourceManual,
			Name:        "Manual Entry",
			Description: "Manually entered entries",
			Priority:    10,
			Active:      true,
		},
	}
}

// ValidateRegistrationSource checks if the source is valid
func ValidateRegistrationSource(source RegistrationSource) bool {
	sources := GetRegistrationSources()
	_, exists := sources[source]
	return exists
}

// GetActiveRegistrationSources returns only active registration sources
func GetActiveRegistrationSources() map[RegistrationSource]RegistrationSourceConfig {
	all := GetRegistrationSources()
	active := make(map[RegistrationSource]RegistrationSourceConfig)

	for source, config := range all {
		if config.Active {
			active[source] = config
		}
	}

	return active
}
