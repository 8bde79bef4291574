package runtime

import (
	"sync"

	"qleon/projection"
)

type Set map[string]struct{}

// ConversationID identifies the timeline seen by Owner when chatting with Contact.
type ConversationID struct {
	Owner   string
	Contact string
}

// Registry owns the open timelines, one per conversation.
// A timeline lives from Open to Close; nothing survives a Close.
type Registry struct {
	mu            sync.RWMutex
	Conversations map[ConversationID]*projection.Store // conversation -> timeline
	OwnerContacts map[string]Set                       // owner -> contacts with an open timeline
}

func NewRegistry() *Registry {
	return &Registry{
		Conversations: make(map[ConversationID]*projection.Store),
		OwnerContacts: make(map[string]Set),
	}
}

// Open returns the timeline of the conversation, creating it with newStore
// when none is open yet.
func (r *Registry) Open(id ConversationID, newStore func() *projection.Store) *projection.Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	if store, ok := r.Conversations[id]; ok {
		return store
	}
	store := newStore()
	r.Conversations[id] = store
	if _, ok := r.OwnerContacts[id.Owner]; !ok {
		r.OwnerContacts[id.Owner] = make(Set)
	}
	r.OwnerContacts[id.Owner][id.Contact] = struct{}{}
	return store
}

func (r *Registry) Get(id ConversationID) (*projection.Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	store, ok := r.Conversations[id]
	return store, ok
}

// Close discards the timeline and releases its observers.
// It reports whether a timeline was open.
func (r *Registry) Close(id ConversationID) bool {
	r.mu.Lock()
	store, ok := r.Conversations[id]
	if ok {
		r.remove(id)
	}
	r.mu.Unlock()

	if ok {
		store.Close()
	}
	return ok
}

// CloseAll discards every timeline of owner, typically on sign out.
func (r *Registry) CloseAll(owner string) {
	r.mu.Lock()
	var stores []*projection.Store
	for contact := range r.OwnerContacts[owner] {
		id := ConversationID{Owner: owner, Contact: contact}
		stores = append(stores, r.Conversations[id])
		r.remove(id)
	}
	r.mu.Unlock()

	for _, store := range stores {
		store.Close()
	}
}

// remove must be called with the lock held.
// Empty owner sets are dropped to avoid leaking entries over time.
func (r *Registry) remove(id ConversationID) {
	delete(r.Conversations, id)
	if contacts, ok := r.OwnerContacts[id.Owner]; ok {
		delete(contacts, id.Contact)
		if len(contacts) == 0 {
			delete(r.OwnerContacts, id.Owner)
		}
	}
}
