package main

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	jsoniter "github.com/json-iterator/go"
	"github.com/waverify/waverify/common"
	"github.com/waverify/waverify/config"
	"github.com/waverify/waverify/db"
	"github.com/waverify/waverify/pkg/log"
	"github.com/waverify/waverify/wa"
)

const (
	credentialMaxAge = 30 * 24 * time.Hour
	artifactMaxAge   = 10 * time.Minute
)

func GoBackgrounds() {
	// remove credentials of users who never came back
	go ExpireCleanBackground(wa.BucketCredential, 6*time.Hour, func(b []byte, now time.Time) (expired bool) {
		var cred wa.Credential
		if err := jsoniter.Unmarshal(b, &cred); err != nil {
			// invalid credentials are regarded as expired
			return true
		}
		return common.Expired(cred.SavedAt.Add(credentialMaxAge))
	})()

	// remove QR and report artifacts a crash left behind
	go ArtifactCleanBackground(config.GetConfig().ArtifactDir, 10*time.Minute)()
}

func ExpireCleanBackground(bucket string, cleanInterval time.Duration, f func(b []byte, now time.Time) (expired bool)) func() {
	return func() {
		tick := time.Tick(cleanInterval)
		for now := range tick {
			if err := db.DB().Update(func(tx *bolt.Tx) error {
				bkt, err := tx.CreateBucketIfNotExists([]byte(bucket))
				if err != nil {
					return err
				}
				var listClean [][]byte
				if err = bkt.ForEach(func(k, b []byte) error {
					if f(b, now) {
						listClean = append(listClean, k)
					}
					return nil
				}); err != nil {
					return err
				}
				for _, k := range listClean {
					if err = bkt.Delete(k); err != nil {
						return err
					}
				}
				return nil
			}); err != nil {
				log.Warn("clean bucket %v: %v", bucket, err)
			}
		}
	}
}

// ArtifactCleanBackground removes transient qr-*.png and report-*.txt files
// that outlived their delivery. Artifacts in active use are younger than
// artifactMaxAge and are left alone.
func ArtifactCleanBackground(dir string, cleanInterval time.Duration) func() {
	return func() {
		tick := time.Tick(cleanInterval)
		for now := range tick {
			entries, err := os.ReadDir(dir)
			if err != nil {
				log.Warn("sweep artifacts in %v: %v", dir, err)
				continue
			}
			for _, entry := range entries {
				name := entry.Name()
				if !strings.HasPrefix(name, "qr-") && !strings.HasPrefix(name, "report-") {
					continue
				}
				info, err := entry.Info()
				if err != nil {
					continue
				}
				if now.Sub(info.ModTime()) < artifactMaxAge {
					continue
				}
				path := filepath.Join(dir, name)
				if err := os.Remove(path); err != nil {
					log.Warn("remove stale artifact %v: %v", path, err)
				} else {
					log.Info("removed stale artifact %v", path)
				}
			}
		}
	}
}
