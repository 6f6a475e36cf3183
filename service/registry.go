package service

import (
	"sync"

	"github.com/waverify/waverify/model"
	"github.com/waverify/waverify/wa"
)

// Registry is the single source of truth for which users are logged in.
// One mutex guards both maps; telebot handlers and session event callbacks
// mutate entries for the same owner concurrently.
type Registry struct {
	mu         sync.Mutex
	sessions   map[int64]*model.UserSession
	loginLocks map[int64]bool
}

func NewRegistry() *Registry {
	return &Registry{
		sessions:   make(map[int64]*model.UserSession),
		loginLocks: make(map[int64]bool),
	}
}

func (r *Registry) Get(ownerID int64) (*model.UserSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[ownerID]
	return sess, ok
}

func (r *Registry) Put(sess *model.UserSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.OwnerID] = sess
}

func (r *Registry) Remove(ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, ownerID)
}

func (r *Registry) IsReady(ownerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[ownerID]
	return ok && sess.State == model.StateReady
}

// SetState transitions the entry's ready state. It is the single mutation
// point for lifecycle transitions and only applies when the entry still owns
// handle: a stale callback from an abandoned session of the same owner must
// not drive the successor's state machine.
func (r *Registry) SetState(ownerID int64, handle wa.Client, state model.ReadyState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[ownerID]
	if !ok || sess.Handle != handle {
		return false
	}
	sess.State = state
	return true
}

// RemoveHandle removes the entry only if it still owns handle; it reports
// whether this call performed the removal. Teardown paths use it so a late
// event from a dead handle cannot evict a successor session.
func (r *Registry) RemoveHandle(ownerID int64, handle wa.Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[ownerID]
	if !ok || sess.Handle != handle {
		return false
	}
	delete(r.sessions, ownerID)
	return true
}

// TryAcquireLoginLock reports whether a new login attempt may start. It
// fails when another attempt is in flight or the user is already Ready.
func (r *Registry) TryAcquireLoginLock(ownerID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loginLocks[ownerID] {
		return false
	}
	if sess, ok := r.sessions[ownerID]; ok && sess.State == model.StateReady {
		return false
	}
	r.loginLocks[ownerID] = true
	return true
}

func (r *Registry) ReleaseLoginLock(ownerID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.loginLocks, ownerID)
}

// Drain removes and returns all live sessions; used by the shutdown sweep.
func (r *Registry) Drain() []*model.UserSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	var list []*model.UserSession
	for _, sess := range r.sessions {
		list = append(list, sess)
	}
	r.sessions = make(map[int64]*model.UserSession)
	r.loginLocks = make(map[int64]bool)
	return list
}

// Counts reports live and ready session numbers for the operational API.
func (r *Registry) Counts() (live, ready int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	live = len(r.sessions)
	for _, sess := range r.sessions {
		if sess.State == model.StateReady {
			ready++
		}
	}
	return live, ready
}
