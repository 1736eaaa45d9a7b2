package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"sealchat/internal/domain"
)

var _ domain.MessageStore = (*Bolt)(nil)

// AppendMessage journals a delivered envelope. Records are keyed by a
// monotonic sequence number so iteration order is append order.
func (s *Bolt) AppendMessage(ctx context.Context, rec domain.MessageRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal message record: %w", err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket([]byte(messagesBucket))
		seq, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		return bkt.Put(itob(seq), doc)
	})
	if err != nil {
		return "", fmt.Errorf("append message: %w", err)
	}
	return rec.ID, nil
}

// MessagesBetween returns every record exchanged between a and b, sorted by
// timestamp ascending. The history view of a conversation is small enough
// that a full bucket scan is acceptable; a per-pair index can be added when
// that stops being true.
func (s *Bolt) MessagesBetween(ctx context.Context, a, b domain.Identity) ([]domain.MessageRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []domain.MessageRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(messagesBucket)).ForEach(func(_, v []byte) error {
			var rec domain.MessageRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal message record: %w", err)
			}
			if (rec.SenderID == a && rec.ReceiverID == b) || (rec.SenderID == b && rec.ReceiverID == a) {
				out = append(out, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
