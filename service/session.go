package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/waverify/waverify/common"
	"github.com/waverify/waverify/model"
	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/wa"
)

// Notifier delivers user-facing notices. Notify variants are best-effort;
// only artifact deliveries report failure because a lost QR photo aborts the
// login attempt.
type Notifier interface {
	Notify(text string)
	// NotifyLoginMenu sends text together with the logged-out action menu.
	NotifyLoginMenu(text string)
	// NotifyReadyMenu sends text together with the logged-in action menu.
	NotifyReadyMenu(text string)
	NotifyPhoto(path string, caption string) error
	NotifyDocument(path string, caption string) error
}

type Options struct {
	Protocol     string
	ArtifactDir  string
	CheckDelay   time.Duration
	QRMaxRetries int
}

// Sessions drives the lifecycle of per-user messaging sessions and runs
// verification jobs over them. The registry stays authoritative: every exit
// path that abandons a session removes its entry and destroys the handle.
type Sessions struct {
	reg   *Registry
	creds *wa.CredentialStore
	opts  Options
}

func NewSessions(reg *Registry, creds *wa.CredentialStore, opts Options) *Sessions {
	if opts.QRMaxRetries == 0 {
		opts.QRMaxRetries = 5
	}
	return &Sessions{
		reg:   reg,
		creds: creds,
		opts:  opts,
	}
}

func (s *Sessions) Registry() *Registry {
	return s.reg
}

// ClientID derives the stable per-user identifier scoping external session
// storage, so concurrent users never share credentials.
func (s *Sessions) ClientID(ownerID int64) string {
	return common.StringToUUID5(strconv.FormatInt(ownerID, 10))
}

// Login starts a new session for ownerID and wires its lifecycle events into
// the registry. It blocks until the driver's Initialize returns, so callers
// serving chat traffic should run it from a goroutine.
func (s *Sessions) Login(ownerID int64, n Notifier) error {
	if s.reg.IsReady(ownerID) {
		n.Notify("You are already logged in.")
		return model.AlreadyLoggedInErr
	}
	if !s.reg.TryAcquireLoginLock(ownerID) {
		n.Notify("A login attempt is already in progress. Please wait.")
		return model.LoginInProgressErr
	}
	n.Notify("Generating the QR code, please wait...")

	clientID := s.ClientID(ownerID)
	client, err := wa.New(s.opts.Protocol, wa.Options{
		ClientID:     clientID,
		Credentials:  s.creds,
		QRMaxRetries: s.opts.QRMaxRetries,
	})
	if err != nil {
		log.Warn("login %v: new client: %v", ownerID, err)
		s.reg.ReleaseLoginLock(ownerID)
		n.Notify("Could not start the session. Please try /login again.")
		return err
	}

	// abandon tears down the attempt on every failure path. Registry and
	// lock are only touched while the entry still owns this handle, so a
	// stale event from an already-abandoned handle cannot tear down a
	// successor session.
	abandon := func(reason string) {
		if s.reg.RemoveHandle(ownerID, client) {
			s.reg.ReleaseLoginLock(ownerID)
		}
		if err := client.Destroy(); err != nil {
			log.Warn("destroy client of %v after %v: %v", ownerID, reason, err)
		}
	}

	client.On(wa.EventQR, func(payload string) {
		if err := s.deliverQR(n, payload); err != nil {
			log.Warn("login %v: deliver qr: %v", ownerID, err)
			n.Notify("Could not deliver the QR code. Please try /login again.")
			abandon("qr failure")
		}
	})
	client.On(wa.EventAuthenticated, func(string) {
		log.Info("session of %v authenticated", ownerID)
		s.reg.SetState(ownerID, client, model.StateAuthenticated)
		n.Notify("Authentication succeeded. Finishing the login...")
	})
	client.On(wa.EventReady, func(string) {
		log.Info("session of %v ready", ownerID)
		if !s.reg.SetState(ownerID, client, model.StateReady) {
			// the entry was torn down or superseded by a concurrent event
			return
		}
		s.reg.ReleaseLoginLock(ownerID)
		n.NotifyReadyMenu("Logged in successfully. Send one or more phone numbers to check them, or upload a .txt file.")
	})
	client.On(wa.EventAuthFailure, func(payload string) {
		log.Warn("session of %v auth failure: %v", ownerID, payload)
		n.NotifyLoginMenu("Authentication failed. Please try /login again.")
		abandon("auth failure")
	})
	client.On(wa.EventDisconnected, func(payload string) {
		log.Warn("session of %v disconnected: %v", ownerID, payload)
		n.NotifyLoginMenu(fmt.Sprintf("Session disconnected: %v\nUse /login to log in again.", payload))
		abandon("disconnect")
	})
	client.On(wa.EventLoadingScreen, func(payload string) {
		log.Debug("session of %v loading: %v", ownerID, payload)
	})
	client.On(wa.EventRemoteSessionSaved, func(string) {
		log.Info("remote session of %v saved", ownerID)
	})

	s.reg.Put(&model.UserSession{
		OwnerID:  ownerID,
		ClientID: clientID,
		Handle:   client,
		State:    model.StateInitializing,
	})
	if err := client.Initialize(context.Background()); err != nil {
		log.Warn("login %v: initialize: %v", ownerID, err)
		n.Notify("Could not start the session. Please try /login again.")
		abandon("init failure")
		return err
	}
	return nil
}

// deliverQR renders the QR payload into a transient PNG, sends it and
// removes the file again.
func (s *Sessions) deliverQR(n Notifier, payload string) error {
	id, err := gonanoid.New()
	if err != nil {
		return err
	}
	path := filepath.Join(s.opts.ArtifactDir, fmt.Sprintf("qr-%v.png", id))
	if err := qrcode.WriteFile(payload, qrcode.Medium, 512, path); err != nil {
		return err
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			log.Warn("remove qr artifact %v: %v", path, err)
		}
	}()
	return n.NotifyPhoto(path, "Scan this QR code with the messaging app:\n1. Open the app\n2. Go to Settings > Linked Devices\n3. Tap Link a Device\n4. Scan this code")
}

// Logout clears the user's local session state. The driver's logout and
// destroy are best-effort: once the entry is gone the user is no longer
// tracked as logged in, so logout is always reported as successful.
func (s *Sessions) Logout(ownerID int64, n Notifier) error {
	sess, ok := s.reg.Get(ownerID)
	if !ok {
		n.Notify("You are not logged in.")
		return model.NotLoggedInErr
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := sess.Handle.Logout(ctx); err != nil {
		log.Warn("logout %v: %v", ownerID, err)
	}
	if err := sess.Handle.Destroy(); err != nil {
		log.Warn("destroy client of %v on logout: %v", ownerID, err)
	}
	if s.creds != nil {
		if err := s.creds.Wipe(sess.ClientID); err != nil {
			log.Warn("wipe credential of %v: %v", ownerID, err)
		}
	}
	s.reg.Remove(ownerID)
	s.reg.ReleaseLoginLock(ownerID)
	n.NotifyLoginMenu("Logged out successfully. Use /login to connect again.")
	return nil
}

// Status is a pure read; it never mutates session state.
func (s *Sessions) Status(ownerID int64, n Notifier) bool {
	if s.reg.IsReady(ownerID) {
		n.NotifyReadyMenu("Status: connected.\nYou can check phone numbers now.")
		return true
	}
	n.NotifyLoginMenu("Status: not connected.\nUse /login to link your account.")
	return false
}

// Shutdown destroys every live handle and clears the registry.
func (s *Sessions) Shutdown() {
	for _, sess := range s.reg.Drain() {
		if err := sess.Handle.Destroy(); err != nil {
			log.Warn("destroy client of %v on shutdown: %v", sess.OwnerID, err)
		}
	}
}
