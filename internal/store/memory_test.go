package store

import (
	"context"
	"errors"
	"testing"

	"PerpIndexer/internal/entity"
)

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Load(context.Background(), entity.KindTrader, "0xabc")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSaveOverwrites(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, entity.KindTrader, "0xabc", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Save(ctx, entity.KindTrader, "0xabc", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := s.Load(ctx, entity.KindTrader, "0xabc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(data) != `{"v":2}` {
		t.Errorf("got %q, want %q", data, `{"v":2}`)
	}
	if n := s.Len(entity.KindTrader); n != 1 {
		t.Errorf("got %d entities, want 1", n)
	}
}

func TestMemoryStoreKindsAreIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, entity.KindTrader, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := s.Load(ctx, entity.KindMarket, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound for other kind", err)
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, entity.KindOrder, "m-0xabc-bid-1", []byte(`{}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Remove(ctx, entity.KindOrder, "m-0xabc-bid-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Load(ctx, entity.KindOrder, "m-0xabc-bid-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound after remove", err)
	}

	// Removing an absent entity is not an error.
	if err := s.Remove(ctx, entity.KindOrder, "missing"); err != nil {
		t.Errorf("remove absent: %v", err)
	}
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Save(ctx, entity.KindProtocol, entity.ProtocolID, []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, _ := s.Load(ctx, entity.KindProtocol, entity.ProtocolID)
	data[2] = 'X'

	again, _ := s.Load(ctx, entity.KindProtocol, entity.ProtocolID)
	if string(again) != `{"v":1}` {
		t.Errorf("stored value mutated through returned slice: %q", again)
	}
}
