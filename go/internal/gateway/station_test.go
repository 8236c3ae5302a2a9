package gateway

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStation(t *testing.T) {
	assert.Equal(t, StationCommitteeBoat, ParseStation("committee_boat"))
	assert.Equal(t, StationFinishBoat, ParseStation("finish_boat"))
	assert.Equal(t, StationShoreDisplay, ParseStation("shore_display"))

	// Unknown or missing stations still get to watch.
	assert.Equal(t, StationSpectator, ParseStation(""))
	assert.Equal(t, StationSpectator, ParseStation("chase_boat"))
}

func newTestConnection(cm *ConnectionManager, raceID uuid.UUID, station Station) *Connection {
	conn := &Connection{
		ID:          uuid.New().String(),
		Station:     station,
		RaceID:      raceID,
		Send:        make(chan []byte, 8),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}
	cm.registerConnection(conn)
	return conn
}

func TestBroadcastFiltersByStation(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	raceID := uuid.New()

	committee := newTestConnection(cm, raceID, StationCommitteeBoat)
	finish := newTestConnection(cm, raceID, StationFinishBoat)
	spectator := newTestConnection(cm, raceID, StationSpectator)

	event := &RaceEvent{
		ID:     uuid.New().String(),
		RaceID: raceID.String(),
		Type:   EventTypeFinishRecorded,
	}

	cm.handleBroadcast(BroadcastMessage{RaceID: raceID, Event: event, Station: StationFinishBoat})
	assert.Len(t, finish.Send, 1)
	assert.Empty(t, committee.Send)
	assert.Empty(t, spectator.Send)

	// No station set means everyone watching the race gets it.
	cm.handleBroadcast(BroadcastMessage{RaceID: raceID, Event: event})
	assert.Len(t, finish.Send, 2)
	assert.Len(t, committee.Send, 1)
	assert.Len(t, spectator.Send, 1)
}

func TestConnectionStatsCountsStations(t *testing.T) {
	cm := NewConnectionManager(DefaultConnectionConfig())
	raceA := uuid.New()
	raceB := uuid.New()

	newTestConnection(cm, raceA, StationCommitteeBoat)
	newTestConnection(cm, raceA, StationSpectator)
	newTestConnection(cm, raceB, StationSpectator)

	stats := cm.GetConnectionStats()
	require.Equal(t, 3, stats.TotalConnections)
	assert.Equal(t, 2, stats.ActiveRaces)
	assert.Equal(t, 2, stats.ByRace[raceA.String()])
	assert.Equal(t, 1, stats.ByRace[raceB.String()])
	assert.Equal(t, 2, stats.ByStation[StationSpectator])
	assert.Equal(t, 1, stats.ByStation[StationCommitteeBoat])
}
