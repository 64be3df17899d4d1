// Package directory mints room codes and maps them to live *game.Room
// instances. Code uniqueness across active rooms is enforced here, not in
// the game engine.
package directory

import (
	"crypto/rand"
	"strings"
	"sync"

	"github.com/ThakurMayank5/doodle-party-server/internal/game"
	"github.com/ThakurMayank5/doodle-party-server/internal/obs"
)

// codeAlphabet drops the ambiguous I/L/O/0/1 so codes survive being read
// aloud or scrawled on a whiteboard.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 5
)

// Directory is the registry of live rooms, keyed by room code.
type Directory struct {
	mu    sync.Mutex
	rooms map[string]*game.Room
}

// New builds an empty directory.
func New() *Directory {
	return &Directory{rooms: make(map[string]*game.Room)}
}

// Create mints a fresh, unique room code, builds a Room for it, starts its
// event loop, and registers it. The returned room disposes itself (and
// deregisters from this directory) once its last client leaves.
func (d *Directory) Create() *game.Room {
	d.mu.Lock()
	defer d.mu.Unlock()

	code := d.freshCodeLocked()
	log := obs.Room(code)
	room := game.NewRoom(code, log, d.remove)
	d.rooms[code] = room
	go room.Run()
	return room
}

// Get looks up a room by code, matched case-insensitively.
func (d *Directory) Get(code string) (*game.Room, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[strings.ToUpper(code)]
	return room, ok
}

func (d *Directory) remove(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.rooms, code)
}

func (d *Directory) freshCodeLocked() string {
	for {
		code := generateCode()
		if _, taken := d.rooms[code]; !taken {
			return code
		}
	}
}

func generateCode() string {
	// Rejection sampling: 256 is not a multiple of 31, so a plain modulo
	// would skew toward the low end of the alphabet.
	limit := 256 - 256%len(codeAlphabet)
	code := make([]byte, 0, codeLength)
	buf := make([]byte, 1)
	for len(code) < codeLength {
		if _, err := rand.Read(buf); err != nil {
			panic(err)
		}
		if int(buf[0]) >= limit {
			continue
		}
		code = append(code, codeAlphabet[int(buf[0])%len(codeAlphabet)])
	}
	return string(code)
}
