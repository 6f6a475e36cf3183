package model

import (
	"fmt"

	"github.com/waverify/waverify/wa"
)

var (
	NotLoggedInErr     = fmt.Errorf("not logged in")
	AlreadyLoggedInErr = fmt.Errorf("already logged in")
	LoginInProgressErr = fmt.Errorf("login already in progress")
	SessionExpiredErr  = fmt.Errorf("session expired")
)

type ReadyState int

const (
	StateInitializing ReadyState = iota
	StateAuthenticated
	StateReady
	StateFailed
	StateDisconnected
)

func (s ReadyState) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAuthenticated:
		return "authenticated"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// UserSession is the registry entry of one user's live messaging session.
// The handle is exclusively owned by this entry; once the entry is removed
// from the registry the handle must not be invoked again.
type UserSession struct {
	OwnerID  int64
	ClientID string
	Handle   wa.Client
	State    ReadyState
}
