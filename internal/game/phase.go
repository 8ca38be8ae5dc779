package game

// Phase is the server-authoritative stage of match progression. Transitions
// are one-directional except the PlayerTurn/NextTurn cycle.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseWaitingForLevelLoad
	PhaseSpawn
	PhasePlayerTurn
	PhaseNextTurn
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "Lobby"
	case PhaseWaitingForLevelLoad:
		return "WaitingForLevelLoad"
	case PhaseSpawn:
		return "SpawnPhase"
	case PhasePlayerTurn:
		return "PlayerTurn"
	case PhaseNextTurn:
		return "NextTurn"
	default:
		return "Unknown"
	}
}
