package bans

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestLedger(t *testing.T, limit int, window time.Duration) (*Ledger, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewLedger(client, limit, window), mr
}

func TestStrikesAccumulateToBan(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 3, time.Minute)

	addr := "203.0.113.7:50123"

	banned, err := l.Banned(ctx, addr)
	if err != nil || banned {
		t.Fatalf("fresh host: banned=%v err=%v", banned, err)
	}

	for i := 1; i <= 2; i++ {
		banned, err = l.RecordStrike(ctx, addr)
		if err != nil {
			t.Fatalf("RecordStrike %d failed: %v", i, err)
		}
		if banned {
			t.Fatalf("banned after %d strikes, limit is 3", i)
		}
	}

	banned, err = l.RecordStrike(ctx, addr)
	if err != nil || !banned {
		t.Fatalf("third strike: banned=%v err=%v", banned, err)
	}

	banned, err = l.Banned(ctx, addr)
	if err != nil || !banned {
		t.Fatalf("Banned after limit: banned=%v err=%v", banned, err)
	}
}

func TestStrikesKeyedByHostNotPort(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 2, time.Minute)

	if _, err := l.RecordStrike(ctx, "203.0.113.7:1111"); err != nil {
		t.Fatalf("RecordStrike failed: %v", err)
	}
	banned, err := l.RecordStrike(ctx, "203.0.113.7:2222")
	if err != nil || !banned {
		t.Fatalf("strikes from different ports should share a key: banned=%v err=%v", banned, err)
	}

	banned, err = l.Banned(ctx, "203.0.113.8:3333")
	if err != nil || banned {
		t.Fatalf("different host should be unaffected: banned=%v err=%v", banned, err)
	}
}

func TestBanExpiresWithWindow(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLedger(t, 1, time.Minute)

	if banned, err := l.RecordStrike(ctx, "203.0.113.7:1111"); err != nil || !banned {
		t.Fatalf("RecordStrike: banned=%v err=%v", banned, err)
	}

	mr.FastForward(2 * time.Minute)

	banned, err := l.Banned(ctx, "203.0.113.7:1111")
	if err != nil || banned {
		t.Fatalf("ban should expire with window: banned=%v err=%v", banned, err)
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t, 1, time.Minute)

	if _, err := l.RecordStrike(ctx, "203.0.113.7:1111"); err != nil {
		t.Fatalf("RecordStrike failed: %v", err)
	}
	if err := l.Clear(ctx, "203.0.113.7:9999"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if banned, err := l.Banned(ctx, "203.0.113.7:1111"); err != nil || banned {
		t.Fatalf("after Clear: banned=%v err=%v", banned, err)
	}
}

func TestBackendFailureSurfacesAsUnavailable(t *testing.T) {
	ctx := context.Background()
	l, mr := newTestLedger(t, 1, time.Minute)
	mr.Close()

	if _, err := l.Banned(ctx, "203.0.113.7:1111"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("Banned = %v, want ErrUnavailable", err)
	}
	if _, err := l.RecordStrike(ctx, "203.0.113.7:1111"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("RecordStrike = %v, want ErrUnavailable", err)
	}
}

func TestNilLedgerIsDisabled(t *testing.T) {
	var l *Ledger

	banned, err := l.Banned(context.Background(), "203.0.113.7:1111")
	if err != nil || banned {
		t.Fatalf("nil ledger: banned=%v err=%v", banned, err)
	}
	if _, err := l.RecordStrike(context.Background(), "203.0.113.7:1111"); err != nil {
		t.Fatalf("nil ledger RecordStrike: %v", err)
	}
}
