// Package wa is the boundary to the messaging-platform session protocol.
// Concrete drivers register a Creator under a protocol name; the rest of the
// program only ever sees the Client interface.
package wa

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type Event string

const (
	EventQR                 Event = "qr"
	EventAuthenticated      Event = "authenticated"
	EventReady              Event = "ready"
	EventAuthFailure        Event = "auth_failure"
	EventDisconnected       Event = "disconnected"
	EventLoadingScreen      Event = "loading_screen"
	EventRemoteSessionSaved Event = "remote_session_saved"
)

// Contact carries the display-name fields a driver can resolve for a
// registered identifier. All fields are optional.
type Contact struct {
	PushName string
	Name     string
}

func (c *Contact) DisplayName() string {
	if c == nil {
		return ""
	}
	if c.PushName != "" {
		return c.PushName
	}
	return c.Name
}

// Client is one live session with the external messaging platform.
// Event handlers must be registered before Initialize; they are invoked
// from the driver's own goroutines. The payload is event-specific: the QR
// content for EventQR, the reason for EventDisconnected and EventAuthFailure,
// empty otherwise.
type Client interface {
	Initialize(ctx context.Context) error
	On(event Event, fn func(payload string))
	IsRegisteredUser(ctx context.Context, identifier string) (bool, error)
	GetContactByID(ctx context.Context, identifier string) (*Contact, error)
	Logout(ctx context.Context) error
	Destroy() error
}

// Options scope a client to one user so that concurrent users never share
// session storage.
type Options struct {
	// ClientID is a stable per-user identifier keying credential storage.
	ClientID     string
	Credentials  *CredentialStore
	QRMaxRetries int
}

type Creator func(opts Options) (Client, error)

var Mapper = make(map[string]Creator)

func Register(name string, c Creator) {
	Mapper[name] = c
}

func New(protocol string, opts Options) (Client, error) {
	creator, ok := Mapper[protocol]
	if !ok {
		return nil, fmt.Errorf("no session driver registered for %v", strconv.Quote(protocol))
	}
	return creator(opts)
}

// ContactID derives the platform identifier of a normalized phone number.
func ContactID(number string) string {
	return strings.ReplaceAll(number, "+", "") + "@c.us"
}
