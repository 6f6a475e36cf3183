package wa

import (
	"time"

	"github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"github.com/waverify/waverify/db"
)

const BucketCredential = "credential"

// Credential is an opaque blob a session driver saves when the platform
// confirms the remote session, keyed by the client ID. It lets a driver
// restore an authenticated session without a fresh QR scan.
type Credential struct {
	ClientID string
	Blob     []byte
	SavedAt  time.Time
}

// CredentialStore persists driver credentials in the process-local boltdb.
type CredentialStore struct{}

func NewCredentialStore() *CredentialStore {
	return &CredentialStore{}
}

func (s *CredentialStore) Save(clientID string, blob []byte) error {
	return db.DB().Update(func(tx *bolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(BucketCredential))
		if err != nil {
			return err
		}
		cred := Credential{
			ClientID: clientID,
			Blob:     blob,
			SavedAt:  time.Now(),
		}
		b, err := jsoniter.Marshal(&cred)
		if err != nil {
			return err
		}
		return bkt.Put([]byte(clientID), b)
	})
}

func (s *CredentialStore) Load(clientID string) (*Credential, error) {
	var cred Credential
	err := db.DB().View(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(BucketCredential))
		if bkt == nil {
			return db.ErrKeyNotFound
		}
		b := bkt.Get([]byte(clientID))
		if b == nil {
			return db.ErrKeyNotFound
		}
		return jsoniter.Unmarshal(b, &cred)
	})
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

// Wipe removes the stored credential, if any. Called on logout so a later
// login always starts from a fresh QR handshake.
func (s *CredentialStore) Wipe(clientID string) error {
	return db.DB().Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(BucketCredential))
		if bkt == nil {
			return nil
		}
		return bkt.Delete([]byte(clientID))
	})
}
