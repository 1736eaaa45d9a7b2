package store

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket layout. Account documents are stored once under their ID; the
// secondary buckets map unique attributes back to that ID.
const (
	accountsBucket = "accounts"
	usernameBucket = "accounts_by_username"
	emailBucket    = "accounts_by_email"
	inviteBucket   = "accounts_by_invite"
	messagesBucket = "messages"
)

// Bolt is the document store backing accounts and the message audit trail.
// A single *Bolt is shared by all services; bbolt serialises writers
// internally.
type Bolt struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the database file at path and ensures
// all buckets exist.
func Open(path string) (*Bolt, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{accountsBucket, usernameBucket, emailBucket, inviteBucket, messagesBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}
	return &Bolt{db: db}, nil
}

// Close closes the underlying database file.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}
