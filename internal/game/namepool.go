package game

import (
	"fmt"
	"math/rand"

	"hextactics/internal/protocol"
)

// DefaultNames seeds the name pool when the config provides none.
var DefaultNames = []string{
	"Scout", "Maverick", "Flint", "Ember", "Juniper",
	"Slate", "Vesper", "Moss", "Harrow", "Lark",
}

// NamePool hands out display names for clients whose handshake carries none.
// A name is out of circulation while its player is connected.
type NamePool struct {
	names []string
}

func NewNamePool(names []string) *NamePool {
	if len(names) == 0 {
		names = DefaultNames
	}
	return &NamePool{names: append([]string(nil), names...)}
}

// Take removes and returns a random name. When the pool is dry it falls back
// to a name derived from the client id.
func (np *NamePool) Take(rng *rand.Rand, id protocol.PlayerID) string {
	if len(np.names) == 0 {
		return fmt.Sprintf("Wanderer-%d", id%10000)
	}
	i := rng.Intn(len(np.names))
	name := np.names[i]
	np.names = append(np.names[:i], np.names[i+1:]...)
	return name
}

// Put returns a name to circulation.
func (np *NamePool) Put(name string) {
	np.names = append(np.names, name)
}
