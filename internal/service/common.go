package service

import (
	"errors"
	"sync"
	"time"

	"github.com/lshigami/mockdrive/internal/apperror"
	"gorm.io/gorm"
)

// Candidate is the caller identity taken from the access token.
type Candidate struct {
	ID            uint
	InstitutionID uint
}

type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

func NewClock() Clock {
	return systemClock{}
}

// lookupErr turns a repository read error into NotFound or Internal.
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound("%s %d not found", what, id)
	}
	return apperror.Internal(err, "failed to load %s %d", what, id)
}

// keyedMutex serializes work per key inside this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint]*sync.Mutex)}
}

func (k *keyedMutex) Lock(key uint) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
