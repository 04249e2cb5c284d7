package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const roomCodeDigits = "0123456789"

// Idgen hands out numeric room codes that are unique among the codes it has not
// had disposed yet.
type Idgen struct {
	ids    map[string]struct{}
	length int
	intn   func(n int) int
	locker sync.Mutex
}

func NewIdGen(length int) *Idgen {
	return &Idgen{
		ids:    make(map[string]struct{}),
		length: length,
		intn:   rand.IntN,
	}
}

// Generate draws codes until it finds an unused one. It does not give up, so the
// code space must stay far larger than the number of live rooms.
func (idgen *Idgen) Generate() string {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()

	for {
		id := idgen.draw()
		if _, taken := idgen.ids[id]; taken {
			continue
		}
		idgen.ids[id] = struct{}{}
		return id
	}
}

func (idgen *Idgen) Dispose(id string) {
	idgen.locker.Lock()
	delete(idgen.ids, id)
	idgen.locker.Unlock()
}

func (idgen *Idgen) draw() string {
	var sb strings.Builder
	sb.Grow(idgen.length)
	for range idgen.length {
		sb.WriteByte(roomCodeDigits[idgen.intn(len(roomCodeDigits))])
	}
	return sb.String()
}
