package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
	"sealchat/internal/services/history"
	"sealchat/internal/store"
)

func TestBetween(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, rec := range []domain.MessageRecord{
		{SenderID: "alice", ReceiverID: "bob", Ciphertext: "c1", EncryptedMessage: "m1", IV: "iv1"},
		{SenderID: "bob", ReceiverID: "alice", Ciphertext: "c2", EncryptedMessage: "m2", IV: "iv2"},
		{SenderID: "alice", ReceiverID: "carol", Ciphertext: "c3", EncryptedMessage: "m3", IV: "iv3"},
	} {
		rec.MessageType = "encrypted"
		rec.Timestamp = base.Add(time.Duration(i) * time.Minute)
		if _, err := db.AppendMessage(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	svc := history.New(db, zerolog.Nop())
	recs, err := svc.Between(ctx, "alice", "bob")
	if err != nil {
		t.Fatalf("between: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("want 2 records, got %d", len(recs))
	}
	if recs[0].EncryptedMessage != "m1" || recs[1].EncryptedMessage != "m2" {
		t.Fatalf("wrong order: %+v", recs)
	}

	empty, err := svc.Between(ctx, "bob", "carol")
	if err != nil {
		t.Fatalf("between strangers: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", empty)
	}
}
