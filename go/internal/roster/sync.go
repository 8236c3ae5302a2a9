package roster

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mcdev12/regatta/go/clients/registration_client"
	"github.com/mcdev12/regatta/go/internal/models"
	"github.com/rs/zerolog/log"
)

// PortalClient defines what the roster sync needs from the registration portal
type PortalClient interface {
	GetEntries(ctx context.Context, regattaID string) ([]registration_client.Entry, error)
}

// SyncFromPortal refreshes the local entry roster from the registration
// portal. Entries are upserted keyed by (regatta, sail number); nothing is
// deleted, withdrawn boats just become ineligible.
func SyncFromPortal(ctx context.Context, app *App, client PortalClient, regattaID uuid.UUID) (int, error) {
	portalEntries, err := client.GetEntries(ctx, regattaID.String())
	if err != nil {
		return 0, fmt.Errorf("failed to fetch portal entries: %w", err)
	}

	synced := 0
	for _, pe := range portalEntries {
		id, err := uuid.Parse(pe.ID)
		if err != nil {
			id = uuid.New()
		}
		_, err = app.UpsertEntry(ctx, models.Entry{
			ID:         id,
			RegattaID:  regattaID,
			SailNumber: pe.SailNumber,
			BoatName:   pe.BoatName,
			ClassName:  pe.ClassName,
			Eligible:   pe.Eligible(),
		})
		if err != nil {
			log.Error().Err(err).Str("sail_number", pe.SailNumber).Msg("failed to upsert portal entry")
			continue
		}
		synced++
	}

	log.Info().
		Str("regatta_id", regattaID.String()).
		Int("synced", synced).
		Int("fetched", len(portalEntries)).
		Msg("roster synced from portal")

	return synced, nil
}
