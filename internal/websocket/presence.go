package websocket

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// PresenceTracker — авторитетная in-memory копия online-состояния.
// Запись в user_online_status — best-effort зеркало для "last seen".
// Состояние принадлежит шлюзу, не пакету: никаких глобальных карт.
type PresenceTracker struct {
	mu sync.RWMutex

	// connID -> userID
	connUser map[uuid.UUID]uuid.UUID
	// userID -> последнее соединение (last-connect-wins)
	userConn map[uuid.UUID]uuid.UUID
	lastSeen map[uuid.UUID]time.Time
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		connUser: make(map[uuid.UUID]uuid.UUID),
		userConn: make(map[uuid.UUID]uuid.UUID),
		lastSeen: make(map[uuid.UUID]time.Time),
	}
}

// SetOnline регистрирует переход Offline -> Online. Идемпотентна:
// повторный вызов только освежает last seen и идентификатор соединения.
func (p *PresenceTracker) SetOnline(userID, connID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.connUser[connID] = userID
	p.userConn[userID] = connID
	p.lastSeen[userID] = time.Now()
}

// SetOffline регистрирует переход Online -> Offline
func (p *PresenceTracker) SetOffline(userID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if connID, ok := p.userConn[userID]; ok {
		delete(p.connUser, connID)
	}
	delete(p.userConn, userID)
	p.lastSeen[userID] = time.Now()
}

// DropConnection чистит обратную карту при закрытии конкретного соединения
func (p *PresenceTracker) DropConnection(connID uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.connUser, connID)
}

func (p *PresenceTracker) IsOnline(userID uuid.UUID) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	_, ok := p.userConn[userID]
	return ok
}

// LastSeen возвращает время последнего перехода состояния
func (p *PresenceTracker) LastSeen(userID uuid.UUID) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	t, ok := p.lastSeen[userID]
	return t, ok
}

// OnlineUserIDs возвращает всех пользователей онлайн
func (p *PresenceTracker) OnlineUserIDs() []uuid.UUID {
	p.mu.RLock()
	defer p.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(p.userConn))
	for id := range p.userConn {
		ids = append(ids, id)
	}
	return ids
}
