package user

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strconv"
	"sync"
	"time"

	"github.com/trezcool/kazi/core"
)

var (
	NowFunc = time.Now // mockable

	// recovery outcomes; user-correctable, never system errors
	ErrNoActiveCode = errors.New("no active recovery code for this email")
	ErrCodeExpired  = errors.New("the recovery code has expired, request a new one")
	ErrCodeMismatch = errors.New("incorrect recovery code")
)

type recoveryEntry struct {
	code    string
	expires time.Time
	userID  string
}

// RecoveryCodeStore issues, validates and expires one-time numeric password
// recovery codes, keyed by lower-cased email. Entries live in process memory
// only; pending resets do not survive a restart.
type RecoveryCodeStore struct {
	mu      sync.Mutex
	timeout time.Duration
	entries map[string]recoveryEntry
}

func NewRecoveryCodeStore(timeout time.Duration) *RecoveryCodeStore {
	return &RecoveryCodeStore{
		timeout: timeout,
		entries: make(map[string]recoveryEntry),
	}
}

// Issue generates a 6-digit code for the given email, expiring after the
// store's timeout. Any prior entry for the email is overwritten.
func (s *RecoveryCodeStore) Issue(email, userID string) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[core.CleanString(email, true)] = recoveryEntry{
		code:    code,
		expires: NowFunc().Add(s.timeout),
		userID:  userID,
	}
	return code, nil
}

// Verify checks the submitted code against the live entry for the email.
// An expired entry is deleted on access; a mismatch keeps the entry so the
// user may retry until expiry. A valid entry is NOT consumed here: Consume
// is deferred to the password reset so Verify stays repeatable.
func (s *RecoveryCodeStore) Verify(email, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.verify(core.CleanString(email, true), code)
}

// Consume re-runs Verify's checks and deletes the entry on success,
// returning the owning user's ID. This is the only path that consumes a
// successfully-verified entry.
func (s *RecoveryCodeStore) Consume(email, code string) (string, error) {
	email = core.CleanString(email, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.verify(email, code); err != nil {
		return "", err
	}
	userID := s.entries[email].userID
	delete(s.entries, email)
	return userID, nil
}

// verify expects s.mu to be held and email to be cleaned.
func (s *RecoveryCodeStore) verify(email, code string) error {
	entry, ok := s.entries[email]
	if !ok {
		return ErrNoActiveCode
	}
	if NowFunc().After(entry.expires) {
		delete(s.entries, email)
		return ErrCodeExpired
	}
	if entry.code != code {
		return ErrCodeMismatch
	}
	return nil
}

// generateCode returns a uniformly random digit string in [100000, 999999].
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
