package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/raksha360/preparedness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTRY
// ══════════════════════════════════════════════════════════════════════════════

// Registry держит живые сессии в памяти и восстанавливает остальные из
// журнала. Все изменения одной сессии проходят через Do под её мьютексом,
// поэтому порядок Apply совпадает с порядком записей в журнале.
type Registry struct {
	mu       sync.Mutex
	live     map[shared.SessionID]*slot
	journal  Journal
	content  *Content
	settings Settings
}

type slot struct {
	mu      sync.Mutex
	session *Session

	// lastUsed - unix nano последнего доступа.
	lastUsed atomic.Int64
	// evicted - слот удалён из реестра; держатели ссылок ищут его заново.
	evicted atomic.Bool
}

func newSlot(s *Session) *slot {
	sl := &slot{session: s}
	sl.touch()
	return sl
}

func (sl *slot) touch() {
	sl.lastUsed.Store(time.Now().UnixNano())
}

// NewRegistry создаёт реестр поверх журнала.
func NewRegistry(journal Journal, content *Content, settings Settings) *Registry {
	return &Registry{
		live:     make(map[shared.SessionID]*slot),
		journal:  journal,
		content:  content,
		settings: settings,
	}
}

// Content возвращает общие каталоги.
func (r *Registry) Content() *Content { return r.content }

// Settings возвращает константы правил.
func (r *Registry) Settings() Settings { return r.settings }

// Journal возвращает журнал.
func (r *Registry) Journal() Journal { return r.journal }

// Put регистрирует новую сессию.
func (r *Registry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live[s.ID()] = newSlot(s)
}

// Evict убирает сессию из памяти; следующий доступ восстановит её из журнала.
func (r *Registry) Evict(id shared.SessionID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sl, ok := r.live[id]; ok {
		sl.evicted.Store(true)
		delete(r.live, id)
	}
}

// EvictIdle убирает из памяти сессии, к которым не обращались с before.
// Занятые в этот момент сессии пропускаются. Возвращает число вытесненных.
func (r *Registry) EvictIdle(before time.Time) int {
	cutoff := before.UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, sl := range r.live {
		if sl.lastUsed.Load() >= cutoff {
			continue
		}
		if !sl.mu.TryLock() {
			continue
		}
		sl.evicted.Store(true)
		delete(r.live, id)
		sl.mu.Unlock()
		evicted++
	}
	return evicted
}

// Sessions возвращает снимок живых сессий.
func (r *Registry) Sessions() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Session, 0, len(r.live))
	for _, sl := range r.live {
		out = append(out, sl.session)
	}
	return out
}

// Len возвращает количество сессий в памяти.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Get возвращает сессию для чтения.
func (r *Registry) Get(ctx context.Context, id shared.SessionID) (*Session, error) {
	var out *Session
	err := r.Do(ctx, id, func(s *Session) error {
		out = s
		return nil
	})
	return out, err
}

// Do выполняет fn под мьютексом сессии. Если fn вернула ошибку после
// частичного успеха (например, журнал недоступен), вызывающий должен
// сам вызвать Evict.
func (r *Registry) Do(ctx context.Context, id shared.SessionID, fn func(*Session) error) error {
	for {
		sl, err := r.slot(ctx, id)
		if err != nil {
			return err
		}
		// Слот вытеснен, пока мы ждали: берём свежий из журнала.
		if done, err := sl.run(fn); done {
			return err
		}
	}
}

func (sl *slot) run(fn func(*Session) error) (bool, error) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.evicted.Load() {
		return false, nil
	}
	sl.touch()
	return true, fn(sl.session)
}

func (r *Registry) slot(ctx context.Context, id shared.SessionID) (*slot, error) {
	r.mu.Lock()
	if sl, ok := r.live[id]; ok {
		r.mu.Unlock()
		return sl, nil
	}
	r.mu.Unlock()

	restored, err := Restore(ctx, r.journal, id, r.content, r.settings)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Кто-то мог восстановить сессию параллельно.
	if sl, ok := r.live[id]; ok {
		return sl, nil
	}
	sl := newSlot(restored)
	r.live[id] = sl
	return sl, nil
}
