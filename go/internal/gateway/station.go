package gateway

// Station identifies which console a socket belongs to. The committee
// boat runs the start sequence, the finish boat logs finishers, and the
// shore display mirrors state for spectators ashore.
type Station string

const (
	StationCommitteeBoat Station = "committee_boat"
	StationFinishBoat    Station = "finish_boat"
	StationShoreDisplay  Station = "shore_display"
	StationSpectator     Station = "spectator"
)

// ParseStation maps a client-supplied value onto a known station.
// Unknown or empty values connect as spectators rather than being
// rejected, so a misconfigured console still sees the race.
func ParseStation(s string) Station {
	switch Station(s) {
	case StationCommitteeBoat, StationFinishBoat, StationShoreDisplay:
		return Station(s)
	default:
		return StationSpectator
	}
}
