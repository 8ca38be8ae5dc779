package protocol

import (
	"encoding/json"
	"fmt"
)

// Messages travel as a JSON envelope: a variant tag plus the variant's own
// payload. Every message is self-describing and decodes without phase context;
// rejecting a message that arrives in the wrong phase is the state machines'
// job, not the codec's.

const (
	tagPlayerConnected    = "playerConnected"
	tagPlayerDisconnected = "playerDisconnected"
	tagPlayerTurn         = "playerTurn"
	tagPlayerNameChanged  = "playerNameChanged"
	tagLoadLevel          = "loadLevel"
	tagAssignSpawnpoint   = "assignSpawnpoint"
	tagSpawnCharacter     = "spawnCharacter"

	tagClientReady       = "clientReady"
	tagChangeName        = "changeName"
	tagEndTurn           = "endTurn"
	tagLevelLoaded       = "levelLoaded"
	tagTrySpawnCharacter = "trySpawnCharacter"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// EncodeServer serializes a server-to-client message.
func EncodeServer(msg ServerMessage) ([]byte, error) {
	var tag string
	switch msg.(type) {
	case PlayerConnected:
		tag = tagPlayerConnected
	case PlayerDisconnected:
		tag = tagPlayerDisconnected
	case PlayerTurn:
		tag = tagPlayerTurn
	case PlayerNameChanged:
		tag = tagPlayerNameChanged
	case LoadLevel:
		tag = tagLoadLevel
	case AssignSpawnpoint:
		tag = tagAssignSpawnpoint
	case SpawnCharacter:
		tag = tagSpawnCharacter
	default:
		return nil, fmt.Errorf("protocol: unknown server message %T", msg)
	}
	return seal(tag, msg)
}

// DecodeServer parses a server-to-client message.
func DecodeServer(data []byte) (ServerMessage, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case tagPlayerConnected:
		return unseal[PlayerConnected](env)
	case tagPlayerDisconnected:
		return unseal[PlayerDisconnected](env)
	case tagPlayerTurn:
		return unseal[PlayerTurn](env)
	case tagPlayerNameChanged:
		return unseal[PlayerNameChanged](env)
	case tagLoadLevel:
		return unseal[LoadLevel](env)
	case tagAssignSpawnpoint:
		return unseal[AssignSpawnpoint](env)
	case tagSpawnCharacter:
		return unseal[SpawnCharacter](env)
	default:
		return nil, fmt.Errorf("protocol: unknown server message type %q", env.Type)
	}
}

// EncodeClient serializes a client-to-server message.
func EncodeClient(msg ClientMessage) ([]byte, error) {
	var tag string
	switch msg.(type) {
	case ClientReady:
		tag = tagClientReady
	case ChangeName:
		tag = tagChangeName
	case EndTurn:
		tag = tagEndTurn
	case LevelLoaded:
		tag = tagLevelLoaded
	case TrySpawnCharacter:
		tag = tagTrySpawnCharacter
	default:
		return nil, fmt.Errorf("protocol: unknown client message %T", msg)
	}
	return seal(tag, msg)
}

// DecodeClient parses a client-to-server message.
func DecodeClient(data []byte) (ClientMessage, error) {
	env, err := open(data)
	if err != nil {
		return nil, err
	}
	switch env.Type {
	case tagClientReady:
		return unseal[ClientReady](env)
	case tagChangeName:
		return unseal[ChangeName](env)
	case tagEndTurn:
		return unseal[EndTurn](env)
	case tagLevelLoaded:
		return unseal[LevelLoaded](env)
	case tagTrySpawnCharacter:
		return unseal[TrySpawnCharacter](env)
	default:
		return nil, fmt.Errorf("protocol: unknown client message type %q", env.Type)
	}
}

func seal(tag string, msg any) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: marshal %s: %w", tag, err)
	}
	return json.Marshal(envelope{Type: tag, Data: data})
}

func open(data []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("protocol: malformed envelope: %w", err)
	}
	if env.Type == "" {
		return env, fmt.Errorf("protocol: envelope has no type tag")
	}
	return env, nil
}

func unseal[T any](env envelope) (T, error) {
	var msg T
	if len(env.Data) == 0 {
		return msg, nil
	}
	if err := json.Unmarshal(env.Data, &msg); err != nil {
		return msg, fmt.Errorf("protocol: malformed %s payload: %w", env.Type, err)
	}
	return msg, nil
}
