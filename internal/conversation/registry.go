package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/store"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// ErrNotFound is returned for unknown conversation IDs.
var ErrNotFound = errors.New("conversation not found")

// Registry holds one Manager per active conversation and persists every
// change through a store.Store. Requests against the same conversation are
// serialized; different conversations proceed in parallel.
type Registry struct {
	mu         sync.Mutex
	entries    map[string]*entry
	store      store.Store
	managerOpt []Option
	now        func() time.Time
}

type entry struct {
	mu      sync.Mutex
	manager *Manager
	record  models.ConversationRecord
	touched time.Time
	evicted bool
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithStore sets the persistence backend. The default is an in-memory store.
func WithStore(s store.Store) RegistryOption {
	return func(r *Registry) { r.store = s }
}

// WithManagerOptions applies opts to every Manager the registry creates.
func WithManagerOptions(opts ...Option) RegistryOption {
	return func(r *Registry) { r.managerOpt = append(r.managerOpt, opts...) }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		r.store = store.NewInMemoryStore()
	}
	return r
}

// Start opens a new conversation and persists its initial snapshot.
func (r *Registry) Start(ctx context.Context, req models.StartConversationRequest) (models.ConversationRecord, error) {
	now := r.now().UTC()
	e := &entry{
		manager: NewManager(r.managerOpt...),
		record: models.ConversationRecord{
			ID:              util.GenerateConversationID(),
			BusinessContext: req.BusinessContext,
			UserName:        req.UserName,
			Persona:         req.Persona,
			Turns:           []models.Turn{},
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		touched: now,
	}
	e.record.State = e.manager.State()

	if err := r.store.SaveConversation(ctx, e.record); err != nil {
		return models.ConversationRecord{}, fmt.Errorf("persist new conversation: %w", err)
	}

	r.mu.Lock()
	r.entries[e.record.ID] = e
	r.mu.Unlock()

	slog.Info("Registry.Start: conversation started", "id", e.record.ID, "persona_set", req.Persona != nil)
	return snapshot(e), nil
}

// AppendTurns adds turns to the transcript, updates the inferred state,
// and persists the result.
func (r *Registry) AppendTurns(ctx context.Context, id string, turns []models.Turn) (models.ConversationRecord, error) {
	for _, t := range turns {
		if err := t.Validate(); err != nil {
			return models.ConversationRecord{}, err
		}
	}

	e, err := r.acquire(ctx, id)
	if err != nil {
		return models.ConversationRecord{}, err
	}
	defer e.mu.Unlock()

	// Work on a copy; the entry changes only once the snapshot is saved.
	prev := e.manager.State()
	next := cloneRecord(e.record)
	next.Turns = append(next.Turns, turns...)
	e.manager.UpdateState(ctx, next.Turns, next.BusinessContext)
	next.State = e.manager.State()
	next.UpdatedAt = r.now().UTC()

	if err := r.store.SaveConversation(ctx, next); err != nil {
		e.manager.Restore(prev)
		slog.Warn("Registry.AppendTurns: save failed, state rolled back", "id", id, "error", err)
		return models.ConversationRecord{}, fmt.Errorf("persist conversation %s: %w", id, err)
	}
	e.record = next
	slog.Debug("Registry.AppendTurns: state updated", "id", id, "turns", len(e.record.Turns), "phase", e.record.State.LikelyPhase)
	return cloneRecord(e.record), nil
}

// Get returns the current snapshot of a conversation.
func (r *Registry) Get(ctx context.Context, id string) (models.ConversationRecord, error) {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return models.ConversationRecord{}, err
	}
	defer e.mu.Unlock()
	return cloneRecord(e.record), nil
}

// Prompt builds the buyer system prompt for a conversation.
func (r *Registry) Prompt(ctx context.Context, id string) (string, error) {
	e, err := r.acquire(ctx, id)
	if err != nil {
		return "", err
	}
	defer e.mu.Unlock()
	return e.manager.SystemPrompt(e.record.Persona, e.record.BusinessContext, e.record.UserName), nil
}

// End drops a conversation from memory and from the store.
func (r *Registry) End(ctx context.Context, id string) error {
	r.mu.Lock()
	e, cached := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()
	if cached {
		e.mu.Lock()
		e.evicted = true
		e.mu.Unlock()
	}

	err := r.store.DeleteConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		if cached {
			return nil
		}
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	slog.Info("Registry.End: conversation ended", "id", id)
	return nil
}

// Len returns the number of conversations held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep drops conversations untouched for at least idle from memory. Their
// snapshots stay in the store and are rehydrated on the next access. Entries
// busy with a request are skipped. It returns the number evicted.
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.now().UTC()
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, e := range r.entries {
		if !e.mu.TryLock() {
			continue
		}
		if now.Sub(e.touched) >= idle {
			e.evicted = true
			delete(r.entries, id)
			evicted++
		}
		e.mu.Unlock()
	}
	if evicted > 0 {
		slog.Info("Registry.Sweep: idle conversations evicted", "evicted", evicted, "remaining", len(r.entries))
	}
	return evicted
}

// acquire returns the entry for id with its lock held. An entry evicted
// between lookup and locking is looked up again.
func (r *Registry) acquire(ctx context.Context, id string) (*entry, error) {
	for {
		e, err := r.lookup(ctx, id)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		if e.evicted {
			e.mu.Unlock()
			continue
		}
		e.touched = r.now().UTC()
		return e, nil
	}
}

// lookup returns the cached entry or rehydrates it from the store.
func (r *Registry) lookup(ctx context.Context, id string) (*entry, error) {
	r.mu.Lock()
	e, ok := r.entries[id]
	r.mu.Unlock()
	if ok {
		return e, nil
	}

	rec, err := r.store.GetConversation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation %s: %w", id, err)
	}

	loaded := &entry{manager: NewManager(r.managerOpt...), record: *rec, touched: r.now().UTC()}
	if loaded.record.Turns == nil {
		loaded.record.Turns = []models.Turn{}
	}
	loaded.manager.Restore(rec.State)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[id]; ok {
		return existing, nil
	}
	r.entries[id] = loaded
	slog.Debug("Registry.lookup: conversation rehydrated from store", "id", id, "turns", len(rec.Turns))
	return loaded, nil
}

func snapshot(e *entry) models.ConversationRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneRecord(e.record)
}

func cloneRecord(rec models.ConversationRecord) models.ConversationRecord {
	out := rec
	out.Turns = append([]models.Turn{}, rec.Turns...)
	out.State = rec.State.Clone()
	return out
}
