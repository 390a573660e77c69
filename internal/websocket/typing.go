package websocket

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// TTL маркера: после него маркер считается протухшим,
	// даже если typing_stop так и не пришел
	typingTTL = 30 * time.Second

	// Интервал фонового свипа
	typingSweepInterval = 30 * time.Second
)

// TypingStore — зеркало маркеров в БД, только для отображения
type TypingStore interface {
	UpsertTyping(roomID, userID uuid.UUID) error
	DeleteTyping(roomID, userID uuid.UUID) error
	DeleteTypingByUser(userID uuid.UUID) error
	DeleteTypingBefore(cutoff time.Time) (int64, error)
}

// TypingCoordinator держит авторитетную in-memory копию маркеров
// "кто печатает" и гоняет свипер, выкидывающий протухшие маркеры
// за клиентов, отвалившихся без typing_stop.
type TypingCoordinator struct {
	mu      sync.Mutex
	markers map[uuid.UUID]map[uuid.UUID]time.Time // roomID -> userID -> started

	ttl      time.Duration
	interval time.Duration
	store    TypingStore
}

func NewTypingCoordinator(store TypingStore) *TypingCoordinator {
	return &TypingCoordinator{
		markers:  make(map[uuid.UUID]map[uuid.UUID]time.Time),
		ttl:      typingTTL,
		interval: typingSweepInterval,
		store:    store,
	}
}

// Start ставит или освежает маркер
func (t *TypingCoordinator) Start(roomID, userID uuid.UUID) {
	t.mu.Lock()
	if _, ok := t.markers[roomID]; !ok {
		t.markers[roomID] = make(map[uuid.UUID]time.Time)
	}
	t.markers[roomID][userID] = time.Now()
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.UpsertTyping(roomID, userID); err != nil {
			log.Printf("Failed to mirror typing marker: %v", err)
		}
	}
}

// Stop снимает маркер
func (t *TypingCoordinator) Stop(roomID, userID uuid.UUID) {
	t.mu.Lock()
	t.removeUnsafe(roomID, userID)
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.DeleteTyping(roomID, userID); err != nil {
			log.Printf("Failed to clear typing marker: %v", err)
		}
	}
}

// PurgeUser снимает все маркеры пользователя, например при дисконнекте.
// Возвращает комнаты, где маркер стоял.
func (t *TypingCoordinator) PurgeUser(userID uuid.UUID) []uuid.UUID {
	t.mu.Lock()
	var rooms []uuid.UUID
	for roomID, users := range t.markers {
		if _, ok := users[userID]; ok {
			rooms = append(rooms, roomID)
			t.removeUnsafe(roomID, userID)
		}
	}
	t.mu.Unlock()

	if t.store != nil {
		if err := t.store.DeleteTypingByUser(userID); err != nil {
			log.Printf("Failed to clear typing markers for user %s: %v", userID, err)
		}
	}
	return rooms
}

// ActiveTypists отвечает из памяти, без похода в БД.
// Протухшие маркеры отфильтровываются даже до свипа.
func (t *TypingCoordinator) ActiveTypists(roomID uuid.UUID) []uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-t.ttl)
	var users []uuid.UUID
	for userID, started := range t.markers[roomID] {
		if started.After(cutoff) {
			users = append(users, userID)
		}
	}
	return users
}

// Run запускает периодический свип до отмены контекста.
// Ошибки свипа логируются и не фатальны: следующий интервал повторит.
func (t *TypingCoordinator) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Sweep()
		}
	}
}

// Sweep выкидывает маркеры старше TTL из памяти и из зеркала
func (t *TypingCoordinator) Sweep() {
	cutoff := time.Now().Add(-t.ttl)

	t.mu.Lock()
	for roomID, users := range t.markers {
		for userID, started := range users {
			if started.Before(cutoff) {
				t.removeUnsafe(roomID, userID)
			}
		}
	}
	t.mu.Unlock()

	if t.store != nil {
		if _, err := t.store.DeleteTypingBefore(cutoff); err != nil {
			log.Printf("Typing sweep failed: %v", err)
		}
	}
}

func (t *TypingCoordinator) removeUnsafe(roomID, userID uuid.UUID) {
	if users, ok := t.markers[roomID]; ok {
		delete(users, userID)
		if len(users) == 0 {
			delete(t.markers, roomID)
		}
	}
}
