package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/waverify/waverify/model"
	"github.com/waverify/waverify/wa"
)

// fakeClient is a scripted session driver. Events listed in fireOnInit are
// emitted synchronously from Initialize, mimicking a driver that settles
// during its handshake.
type fakeClient struct {
	mu         sync.Mutex
	handlers   map[wa.Event]func(string)
	registered map[string]bool
	failing    map[string]bool
	contacts   map[string]*wa.Contact
	contactErr error

	initErr    error
	initGate   chan struct{} // when set, Initialize blocks until closed
	fireOnInit []fakeEvent

	destroyed bool
	loggedOut bool

	onLookup func(identifier string)
}

type fakeEvent struct {
	event   wa.Event
	payload string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		handlers:   make(map[wa.Event]func(string)),
		registered: make(map[string]bool),
		failing:    make(map[string]bool),
		contacts:   make(map[string]*wa.Contact),
	}
}

func (c *fakeClient) On(event wa.Event, fn func(string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = fn
}

func (c *fakeClient) fire(event wa.Event, payload string) {
	c.mu.Lock()
	fn := c.handlers[event]
	c.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

func (c *fakeClient) Initialize(ctx context.Context) error {
	if c.initErr != nil {
		return c.initErr
	}
	for _, ev := range c.fireOnInit {
		c.fire(ev.event, ev.payload)
	}
	if c.initGate != nil {
		<-c.initGate
	}
	return nil
}

func (c *fakeClient) IsRegisteredUser(ctx context.Context, identifier string) (bool, error) {
	if c.onLookup != nil {
		c.onLookup(identifier)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failing[identifier] {
		return false, fmt.Errorf("lookup failed")
	}
	return c.registered[identifier], nil
}

func (c *fakeClient) GetContactByID(ctx context.Context, identifier string) (*wa.Contact, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.contactErr != nil {
		return nil, c.contactErr
	}
	return c.contacts[identifier], nil
}

func (c *fakeClient) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loggedOut = true
	return nil
}

func (c *fakeClient) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	return nil
}

func (c *fakeClient) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// fakeNotifier records every notice.
type fakeNotifier struct {
	mu       sync.Mutex
	texts    []string
	photos   []string
	docs     []string
	photoErr error
}

func (n *fakeNotifier) Notify(text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.texts = append(n.texts, text)
}

func (n *fakeNotifier) NotifyLoginMenu(text string) { n.Notify(text) }
func (n *fakeNotifier) NotifyReadyMenu(text string) { n.Notify(text) }

func (n *fakeNotifier) NotifyPhoto(path string, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.photoErr != nil {
		return n.photoErr
	}
	n.photos = append(n.photos, path)
	return nil
}

func (n *fakeNotifier) NotifyDocument(path string, caption string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.docs = append(n.docs, path)
	return nil
}

// newTestSessions wires a Sessions service to a protocol registered only for
// this test, whose creator hands out the given client.
func newTestSessions(t *testing.T, client wa.Client) *Sessions {
	protocol := "fake-" + t.Name()
	wa.Register(protocol, func(opts wa.Options) (wa.Client, error) {
		return client, nil
	})
	return NewSessions(NewRegistry(), nil, Options{
		Protocol:    protocol,
		ArtifactDir: t.TempDir(),
	})
}

func TestLoginBecomesReady(t *testing.T) {
	client := newFakeClient()
	client.fireOnInit = []fakeEvent{
		{wa.EventQR, "qr-content"},
		{wa.EventAuthenticated, ""},
		{wa.EventReady, ""},
	}
	s := newTestSessions(t, client)
	n := &fakeNotifier{}

	require.NoError(t, s.Login(7, n))
	assert.True(t, s.Registry().IsReady(7))
	assert.Len(t, n.photos, 1, "one QR photo delivered")
	assert.False(t, s.Registry().TryAcquireLoginLock(7), "ready session blocks relogin")
	assert.False(t, client.isDestroyed())
}

func TestLoginRejectedWhileInProgress(t *testing.T) {
	client := newFakeClient()
	client.initGate = make(chan struct{})
	s := newTestSessions(t, client)

	done := make(chan error, 1)
	go func() {
		done <- s.Login(7, &fakeNotifier{})
	}()
	// wait for the first attempt to hold the lock
	require.Eventually(t, func() bool {
		_, ok := s.Registry().Get(7)
		return ok
	}, time.Second, time.Millisecond)

	err := s.Login(7, &fakeNotifier{})
	assert.ErrorIs(t, err, model.LoginInProgressErr)

	close(client.initGate)
	require.NoError(t, <-done)
}

func TestLoginAlreadyReady(t *testing.T) {
	client := newFakeClient()
	s := newTestSessions(t, client)
	s.Registry().Put(&model.UserSession{OwnerID: 7, Handle: client, State: model.StateReady})

	err := s.Login(7, &fakeNotifier{})
	assert.ErrorIs(t, err, model.AlreadyLoggedInErr)
	assert.True(t, s.Registry().IsReady(7), "precondition failure mutates nothing")
}

func TestLoginAuthFailureTearsDown(t *testing.T) {
	client := newFakeClient()
	client.fireOnInit = []fakeEvent{
		{wa.EventAuthFailure, "bad credentials"},
	}
	s := newTestSessions(t, client)

	require.NoError(t, s.Login(7, &fakeNotifier{}))
	_, ok := s.Registry().Get(7)
	assert.False(t, ok, "entry removed on auth failure")
	assert.True(t, client.isDestroyed())
	assert.True(t, s.Registry().TryAcquireLoginLock(7), "lock released")
}

func TestLoginDisconnectTearsDown(t *testing.T) {
	client := newFakeClient()
	client.fireOnInit = []fakeEvent{
		{wa.EventReady, ""},
		{wa.EventDisconnected, "logged out elsewhere"},
	}
	s := newTestSessions(t, client)
	n := &fakeNotifier{}

	require.NoError(t, s.Login(7, n))
	_, ok := s.Registry().Get(7)
	assert.False(t, ok)
	assert.True(t, client.isDestroyed())
}

func TestLoginQRDeliveryFailureTearsDown(t *testing.T) {
	client := newFakeClient()
	client.fireOnInit = []fakeEvent{
		{wa.EventQR, "qr-content"},
	}
	s := newTestSessions(t, client)
	n := &fakeNotifier{photoErr: fmt.Errorf("chat gone")}

	require.NoError(t, s.Login(7, n))
	_, ok := s.Registry().Get(7)
	assert.False(t, ok, "entry removed when the QR cannot be delivered")
	assert.True(t, client.isDestroyed())
	assert.True(t, s.Registry().TryAcquireLoginLock(7))
}

func TestLoginInitErrorTearsDown(t *testing.T) {
	client := newFakeClient()
	client.initErr = fmt.Errorf("driver exploded")
	s := newTestSessions(t, client)

	err := s.Login(7, &fakeNotifier{})
	require.Error(t, err)
	_, ok := s.Registry().Get(7)
	assert.False(t, ok)
	assert.True(t, client.isDestroyed())
	assert.True(t, s.Registry().TryAcquireLoginLock(7))
}

// newQueuedSessions hands out the given clients in order, one per login
// attempt.
func newQueuedSessions(t *testing.T, clients ...wa.Client) *Sessions {
	protocol := "fake-" + t.Name()
	queue := clients
	wa.Register(protocol, func(opts wa.Options) (wa.Client, error) {
		c := queue[0]
		queue = queue[1:]
		return c, nil
	})
	return NewSessions(NewRegistry(), nil, Options{
		Protocol:    protocol,
		ArtifactDir: t.TempDir(),
	})
}

func TestStaleEventDoesNotTearDownSuccessor(t *testing.T) {
	first := newFakeClient()
	first.fireOnInit = []fakeEvent{{wa.EventAuthFailure, "bad credentials"}}
	second := newFakeClient()
	second.fireOnInit = []fakeEvent{{wa.EventReady, ""}}
	s := newQueuedSessions(t, first, second)

	require.NoError(t, s.Login(7, &fakeNotifier{}))
	assert.True(t, first.isDestroyed())
	require.NoError(t, s.Login(7, &fakeNotifier{}))
	require.True(t, s.Registry().IsReady(7))

	// the dead handle reports a late disconnect
	first.fire(wa.EventDisconnected, "stale")
	assert.True(t, s.Registry().IsReady(7), "stale event must not evict the successor")
	sess, ok := s.Registry().Get(7)
	require.True(t, ok)
	assert.Same(t, second, sess.Handle)
	assert.False(t, second.isDestroyed())
}

func TestStaleReadyDoesNotPromoteSuccessor(t *testing.T) {
	first := newFakeClient()
	first.fireOnInit = []fakeEvent{{wa.EventAuthFailure, "bad credentials"}}
	second := newFakeClient()
	s := newQueuedSessions(t, first, second)

	require.NoError(t, s.Login(7, &fakeNotifier{}))
	require.NoError(t, s.Login(7, &fakeNotifier{}))
	sess, ok := s.Registry().Get(7)
	require.True(t, ok)
	assert.Equal(t, model.StateInitializing, sess.State)

	first.fire(wa.EventReady, "")
	assert.False(t, s.Registry().IsReady(7), "stale ready must not promote the successor")
	assert.False(t, s.Registry().TryAcquireLoginLock(7), "successor attempt keeps its lock")

	second.fire(wa.EventReady, "")
	assert.True(t, s.Registry().IsReady(7))
	assert.False(t, s.Registry().TryAcquireLoginLock(7), "ready session blocks relogin")
}

func TestLogoutWithoutSession(t *testing.T) {
	s := newTestSessions(t, newFakeClient())
	n := &fakeNotifier{}
	err := s.Logout(7, n)
	assert.ErrorIs(t, err, model.NotLoggedInErr)
	assert.Len(t, n.texts, 1)
}

func TestLogoutClearsState(t *testing.T) {
	client := newFakeClient()
	client.fireOnInit = []fakeEvent{{wa.EventReady, ""}}
	s := newTestSessions(t, client)
	require.NoError(t, s.Login(7, &fakeNotifier{}))

	require.NoError(t, s.Logout(7, &fakeNotifier{}))
	_, ok := s.Registry().Get(7)
	assert.False(t, ok)
	assert.True(t, client.loggedOut)
	assert.True(t, client.isDestroyed())
	assert.True(t, s.Registry().TryAcquireLoginLock(7))
}

func TestStatusIsPureRead(t *testing.T) {
	client := newFakeClient()
	s := newTestSessions(t, client)
	n := &fakeNotifier{}
	assert.False(t, s.Status(7, n))

	s.Registry().Put(&model.UserSession{OwnerID: 7, Handle: client, State: model.StateReady})
	assert.True(t, s.Status(7, n))
	assert.True(t, s.Registry().IsReady(7))
	assert.Len(t, n.texts, 2)
}

func TestShutdownDestroysAllHandles(t *testing.T) {
	a, b := newFakeClient(), newFakeClient()
	s := newTestSessions(t, a)
	s.Registry().Put(&model.UserSession{OwnerID: 1, Handle: a, State: model.StateReady})
	s.Registry().Put(&model.UserSession{OwnerID: 2, Handle: b, State: model.StateInitializing})

	s.Shutdown()
	assert.True(t, a.isDestroyed())
	assert.True(t, b.isDestroyed())
	live, _ := s.Registry().Counts()
	assert.Zero(t, live)
}

func TestClientIDIsStablePerOwner(t *testing.T) {
	s := newTestSessions(t, newFakeClient())
	assert.Equal(t, s.ClientID(42), s.ClientID(42))
	assert.NotEqual(t, s.ClientID(42), s.ClientID(43))
}
