package protocol

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// The connect handshake is the first frame a client sends: an 8-byte
// little-endian client id followed by a fixed-size user-data block carrying
// the display name. The block is 8 bytes of little-endian name length and then
// the UTF-8 name, zero padded.

const (
	// UserDataSize is the fixed size of the name payload block.
	UserDataSize = 256
	// MaxNameLen is the longest display name the block can carry.
	MaxNameLen = UserDataSize - 8

	handshakeSize = 8 + UserDataSize
)

// EncodeHandshake builds the connect frame for a client id and display name.
func EncodeHandshake(id PlayerID, name string) ([]byte, error) {
	if len(name) > MaxNameLen {
		return nil, fmt.Errorf("protocol: name %d bytes, max %d", len(name), MaxNameLen)
	}
	if !utf8.ValidString(name) {
		return nil, fmt.Errorf("protocol: name is not valid UTF-8")
	}
	buf := make([]byte, handshakeSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(id))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(len(name)))
	copy(buf[16:], name)
	return buf, nil
}

// DecodeHandshake parses a connect frame into the client id and display name.
func DecodeHandshake(data []byte) (PlayerID, string, error) {
	if len(data) != handshakeSize {
		return 0, "", fmt.Errorf("protocol: handshake is %d bytes, want %d", len(data), handshakeSize)
	}
	id := PlayerID(binary.LittleEndian.Uint64(data[0:8]))
	n := binary.LittleEndian.Uint64(data[8:16])
	if n > MaxNameLen {
		return 0, "", fmt.Errorf("protocol: handshake name length %d exceeds %d", n, MaxNameLen)
	}
	name := string(data[16 : 16+n])
	if !utf8.ValidString(name) {
		return 0, "", fmt.Errorf("protocol: handshake name is not valid UTF-8")
	}
	return id, name, nil
}
