package user

import (
	"strconv"
	"testing"
	"time"
)

func TestRecoveryCodeStore_Issue(t *testing.T) {
	store := NewRecoveryCodeStore(15 * time.Minute)

	for i := 0; i < 100; i++ {
		code, err := store.Issue("a@b.com", "201912345")
		if err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("Issue() code = %q; want 6 digits", code)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("Issue() code = %q; not numeric", code)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("Issue() code = %d; want within [100000, 999999]", n)
		}
	}
}

func TestRecoveryCodeStore_Verify(t *testing.T) {
	defer func() { NowFunc = time.Now }()

	now := time.Now()
	NowFunc = func() time.Time { return now }

	store := NewRecoveryCodeStore(15 * time.Minute)
	code, err := store.Issue("Awe@Test.cd", "awe01")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	t.Run("no active code", func(t *testing.T) {
		if err := store.Verify("other@test.cd", code); err != ErrNoActiveCode {
			t.Errorf("Verify() error = %v, want %v", err, ErrNoActiveCode)
		}
	})

	t.Run("mismatch keeps entry", func(t *testing.T) {
		if err := store.Verify("awe@test.cd", "000000"); err != ErrCodeMismatch {
			t.Errorf("Verify() error = %v, want %v", err, ErrCodeMismatch)
		}
		// a correct code still succeeds after a failed attempt
		if err := store.Verify("awe@test.cd", code); err != nil {
			t.Errorf("Verify() error = %v, want nil", err)
		}
	})

	t.Run("valid is repeatable", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			if err := store.Verify("awe@test.cd", code); err != nil {
				t.Errorf("Verify() error = %v, want nil", err)
			}
		}
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		if err := store.Verify("AWE@TEST.CD", code); err != nil {
			t.Errorf("Verify() error = %v, want nil", err)
		}
	})

	t.Run("expiry deletes entry", func(t *testing.T) {
		now = now.Add(15*time.Minute + time.Second)
		if err := store.Verify("awe@test.cd", code); err != ErrCodeExpired {
			t.Errorf("Verify() error = %v, want %v", err, ErrCodeExpired)
		}
		// entry was deleted on first access after expiry
		if err := store.Verify("awe@test.cd", code); err != ErrNoActiveCode {
			t.Errorf("Verify() error = %v, want %v", err, ErrNoActiveCode)
		}
	})
}

func TestRecoveryCodeStore_Issue_overwrites(t *testing.T) {
	store := NewRecoveryCodeStore(15 * time.Minute)

	first, err := store.Issue("awe@test.cd", "awe01")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}
	var second string
	for {
		// codes are random; re-issue until they differ
		if second, err = store.Issue("awe@test.cd", "awe01"); err != nil {
			t.Fatalf("Issue() failed: %v", err)
		}
		if second != first {
			break
		}
	}

	if err := store.Verify("awe@test.cd", first); err != ErrCodeMismatch {
		t.Errorf("Verify(first) error = %v, want %v", err, ErrCodeMismatch)
	}
	if err := store.Verify("awe@test.cd", second); err != nil {
		t.Errorf("Verify(second) error = %v, want nil", err)
	}
}

func TestRecoveryCodeStore_Consume(t *testing.T) {
	store := NewRecoveryCodeStore(15 * time.Minute)

	code, err := store.Issue("awe@test.cd", "awe01")
	if err != nil {
		t.Fatalf("Issue() failed: %v", err)
	}

	if _, err := store.Consume("awe@test.cd", "000000"); err != ErrCodeMismatch {
		t.Errorf("Consume() error = %v, want %v", err, ErrCodeMismatch)
	}

	userID, err := store.Consume("awe@test.cd", code)
	if err != nil {
		t.Fatalf("Consume() error = %v, want nil", err)
	}
	if userID != "awe01" {
		t.Errorf("Consume() userID = %q, want %q", userID, "awe01")
	}

	// consumed exactly once
	if _, err := store.Consume("awe@test.cd", code); err != ErrNoActiveCode {
		t.Errorf("Consume() error = %v, want %v", err, ErrNoActiveCode)
	}
}
