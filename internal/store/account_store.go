package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"sealchat/internal/domain"
)

var _ domain.AccountStore = (*Bolt)(nil)

// CreateAccount inserts a new account. Username and email uniqueness are
// enforced inside one write transaction, so two concurrent registrations
// cannot both win.
func (s *Bolt) CreateAccount(a domain.Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(usernameBucket)).Get([]byte(a.Username)) != nil {
			return domain.ErrUsernameTaken
		}
		if tx.Bucket([]byte(emailBucket)).Get([]byte(a.Email)) != nil {
			return domain.ErrEmailTaken
		}
		if err := tx.Bucket([]byte(accountsBucket)).Put([]byte(a.ID), doc); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(usernameBucket)).Put([]byte(a.Username), []byte(a.ID)); err != nil {
			return err
		}
		if err := tx.Bucket([]byte(emailBucket)).Put([]byte(a.Email), []byte(a.ID)); err != nil {
			return err
		}
		return tx.Bucket([]byte(inviteBucket)).Put([]byte(a.InviteCode), []byte(a.ID))
	})
}

// UpdateAccount replaces an existing account document and keeps the
// secondary indexes in step with any changed attributes.
func (s *Bolt) UpdateAccount(a domain.Account) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(accountsBucket)).Get([]byte(a.ID))
		if raw == nil {
			return domain.ErrAccountNotFound
		}
		var old domain.Account
		if err := json.Unmarshal(raw, &old); err != nil {
			return fmt.Errorf("unmarshal account %s: %w", a.ID, err)
		}
		if old.Username != a.Username {
			if tx.Bucket([]byte(usernameBucket)).Get([]byte(a.Username)) != nil {
				return domain.ErrUsernameTaken
			}
			if err := tx.Bucket([]byte(usernameBucket)).Delete([]byte(old.Username)); err != nil {
				return err
			}
			if err := tx.Bucket([]byte(usernameBucket)).Put([]byte(a.Username), []byte(a.ID)); err != nil {
				return err
			}
		}
		if old.Email != a.Email {
			if tx.Bucket([]byte(emailBucket)).Get([]byte(a.Email)) != nil {
				return domain.ErrEmailTaken
			}
			if err := tx.Bucket([]byte(emailBucket)).Delete([]byte(old.Email)); err != nil {
				return err
			}
			if err := tx.Bucket([]byte(emailBucket)).Put([]byte(a.Email), []byte(a.ID)); err != nil {
				return err
			}
		}
		if old.InviteCode != a.InviteCode {
			if err := tx.Bucket([]byte(inviteBucket)).Delete([]byte(old.InviteCode)); err != nil {
				return err
			}
			if err := tx.Bucket([]byte(inviteBucket)).Put([]byte(a.InviteCode), []byte(a.ID)); err != nil {
				return err
			}
		}
		return tx.Bucket([]byte(accountsBucket)).Put([]byte(a.ID), doc)
	})
}

// AccountByID returns the account stored under id.
func (s *Bolt) AccountByID(id string) (domain.Account, bool, error) {
	var (
		out   domain.Account
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(accountsBucket)).Get([]byte(id))
		if raw == nil {
			return nil
		}
		found = true
		return json.Unmarshal(raw, &out)
	})
	return out, found, err
}

// AccountByUsername resolves username through the index bucket.
func (s *Bolt) AccountByUsername(username string) (domain.Account, bool, error) {
	return s.accountByIndex(usernameBucket, username)
}

// AccountByEmail resolves email through the index bucket.
func (s *Bolt) AccountByEmail(email string) (domain.Account, bool, error) {
	return s.accountByIndex(emailBucket, email)
}

// AccountByInviteCode resolves an invite code through the index bucket.
func (s *Bolt) AccountByInviteCode(code string) (domain.Account, bool, error) {
	return s.accountByIndex(inviteBucket, code)
}

func (s *Bolt) accountByIndex(bucket, key string) (domain.Account, bool, error) {
	var (
		out   domain.Account
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		id := tx.Bucket([]byte(bucket)).Get([]byte(key))
		if id == nil {
			return nil
		}
		raw := tx.Bucket([]byte(accountsBucket)).Get(id)
		if raw == nil {
			return fmt.Errorf("dangling %s index entry %q", bucket, key)
		}
		found = true
		return json.Unmarshal(raw, &out)
	})
	return out, found, err
}
