package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"sealchat/internal/domain"
	"sealchat/internal/store"
)

func openStore(t *testing.T) *store.Bolt {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "sealchat.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func account(id, username, email string) domain.Account {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Account{
		ID:                 id,
		Username:           username,
		Email:              email,
		PasswordHash:       []byte("hash"),
		KyberPublicKey:     "aabb",
		DilithiumPublicKey: "ccdd",
		InviteCode:         "inv-" + id,
		CreatedAt:          now,
		UpdatedAt:          now,
		IsActive:           true,
	}
}

func TestAccount_CreateAndLookups(t *testing.T) {
	s := openStore(t)
	a := account("u1", "alice", "alice@example.com")

	if err := s.CreateAccount(a); err != nil {
		t.Fatalf("create account: %v", err)
	}

	for name, fn := range map[string]func() (domain.Account, bool, error){
		"by id":       func() (domain.Account, bool, error) { return s.AccountByID("u1") },
		"by username": func() (domain.Account, bool, error) { return s.AccountByUsername("alice") },
		"by email":    func() (domain.Account, bool, error) { return s.AccountByEmail("alice@example.com") },
		"by invite":   func() (domain.Account, bool, error) { return s.AccountByInviteCode("inv-u1") },
	} {
		got, ok, err := fn()
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if !ok {
			t.Fatalf("%s: account not found", name)
		}
		if got.ID != a.ID || got.Username != a.Username {
			t.Fatalf("%s: mismatch after load: %+v", name, got)
		}
	}

	if _, ok, err := s.AccountByUsername("nobody"); err != nil || ok {
		t.Fatalf("absent lookup: ok=%v err=%v", ok, err)
	}
}

func TestAccount_UniquenessEnforced(t *testing.T) {
	s := openStore(t)
	if err := s.CreateAccount(account("u1", "alice", "alice@example.com")); err != nil {
		t.Fatalf("create account: %v", err)
	}

	err := s.CreateAccount(account("u2", "alice", "other@example.com"))
	if !errors.Is(err, domain.ErrUsernameTaken) {
		t.Fatalf("want ErrUsernameTaken, got %v", err)
	}

	err = s.CreateAccount(account("u3", "bob", "alice@example.com"))
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("want ErrEmailTaken, got %v", err)
	}
}

func TestAccount_UpdatePreservesIndexes(t *testing.T) {
	s := openStore(t)
	a := account("u1", "alice", "alice@example.com")
	if err := s.CreateAccount(a); err != nil {
		t.Fatalf("create account: %v", err)
	}

	a.LoginOTP = "123456"
	a.LoginOTPExpiry = time.Now().UTC().Add(10 * time.Minute)
	a.Contacts = []string{"u2"}
	if err := s.UpdateAccount(a); err != nil {
		t.Fatalf("update account: %v", err)
	}

	got, ok, err := s.AccountByUsername("alice")
	if err != nil || !ok {
		t.Fatalf("lookup after update: ok=%v err=%v", ok, err)
	}
	if got.LoginOTP != "123456" || !got.HasContact("u2") {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := s.UpdateAccount(account("ghost", "ghost", "g@example.com")); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("want ErrAccountNotFound, got %v", err)
	}
}

func TestMessages_AppendAndQueryOrdered(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	recs := []domain.MessageRecord{
		{SenderID: "a", ReceiverID: "b", MessageType: "encrypted", Ciphertext: "c1", EncryptedMessage: "m1", IV: "i1", Timestamp: base},
		{SenderID: "b", ReceiverID: "a", MessageType: "encrypted", Ciphertext: "c2", EncryptedMessage: "m2", IV: "i2", Signature: "sig", Timestamp: base.Add(time.Minute)},
		{SenderID: "a", ReceiverID: "c", MessageType: "encrypted", Ciphertext: "c3", EncryptedMessage: "m3", IV: "i3", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, rec := range recs {
		id, err := s.AppendMessage(ctx, rec)
		if err != nil {
			t.Fatalf("append: %v", err)
		}
		if id == "" {
			t.Fatal("append returned empty id")
		}
	}

	got, err := s.MessagesBetween(ctx, "a", "b")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 records, got %d", len(got))
	}
	if got[0].Ciphertext != "c1" || got[1].Ciphertext != "c2" {
		t.Fatalf("wrong order: %+v", got)
	}
	if !got[1].Timestamp.After(got[0].Timestamp) {
		t.Fatal("records not sorted by timestamp ascending")
	}
	if got[1].Signature != "sig" {
		t.Fatal("signature not round-tripped")
	}

	// Direction b -> a returns the same conversation.
	rev, err := s.MessagesBetween(ctx, "b", "a")
	if err != nil {
		t.Fatalf("query reverse: %v", err)
	}
	if len(rev) != 2 {
		t.Fatalf("want 2 records in reverse query, got %d", len(rev))
	}
}

func TestMessages_NoneBetweenStrangers(t *testing.T) {
	s := openStore(t)
	got, err := s.MessagesBetween(context.Background(), "x", "y")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want no records, got %d", len(got))
	}
}
