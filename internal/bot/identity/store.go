// Package identity owns the verification bookkeeping state: which chat
// users are verified, which forum accounts have been consumed, and which
// users have already been escalated to the moderators.
//
// Consumed forum identifiers are the only durable piece. They live in a
// newline-delimited append-only log file; the in-memory set is a cache
// rebuilt from the log at startup. The verified and escalated sets are
// session-only and rebuilt from platform state (or reset) on restart.
package identity

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/skobelev/gatewarden/internal/filex"
)

// Store is the single owner of the three verification sets. All methods are
// safe for concurrent use.
type Store struct {
	mu sync.Mutex

	verified  map[string]struct{}
	consumed  map[string]struct{}
	escalated map[string]struct{}

	logFile *os.File
}

// Open loads the consumed-forum-ID log at path, creating the file (and its
// parent directory) if it does not exist yet, and keeps it open for
// appending. The caller must Close the store on shutdown.
func Open(path string) (*Store, error) {
	path, err := filex.EnsureParentDir(path)
	if err != nil {
		return nil, fmt.Errorf("forum ID log: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("forum ID log %s: %w", path, err)
	}

	s := &Store{
		verified:  make(map[string]struct{}),
		consumed:  make(map[string]struct{}),
		escalated: make(map[string]struct{}),
		logFile:   f,
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id != "" {
			s.consumed[id] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("reading forum ID log %s: %w", path, err)
	}

	return s, nil
}

// Close releases the log file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logFile.Close()
}

// IsVerified reports whether the user ID is in the verified set.
func (s *Store) IsVerified(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.verified[userID]
	return ok
}

// AddVerified records a user as verified for the rest of the session.
func (s *Store) AddVerified(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[userID] = struct{}{}
}

// ReplaceVerified swaps the verified set wholesale (the admin refresh path)
// and returns how many IDs were added and removed relative to the previous
// set.
func (s *Store) ReplaceVerified(userIDs []string) (added, removed int) {
	next := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		next[id] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range next {
		if _, ok := s.verified[id]; !ok {
			added++
		}
	}
	for id := range s.verified {
		if _, ok := next[id]; !ok {
			removed++
		}
	}

	s.verified = next
	return added, removed
}

// VerifiedCount returns the size of the verified set.
func (s *Store) VerifiedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.verified)
}

// ForumIDUsed reports whether the forum identifier has been consumed before.
func (s *Store) ForumIDUsed(forumID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.consumed[forumID]
	return ok
}

// ConsumeForumID appends the identifier to the durable log, syncs it to
// disk and records it in memory. It does not return until the identifier is
// on disk: success notifications must never outrun durability.
func (s *Store) ConsumeForumID(forumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.consumed[forumID]; ok {
		return nil
	}

	if _, err := s.logFile.WriteString(forumID + "\n"); err != nil {
		return fmt.Errorf("appending forum ID: %w", err)
	}
	if err := s.logFile.Sync(); err != nil {
		return fmt.Errorf("syncing forum ID log: %w", err)
	}

	s.consumed[forumID] = struct{}{}
	return nil
}

// ForumIDCount returns how many unique forum identifiers were consumed.
func (s *Store) ForumIDCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consumed)
}

// MarkEscalated records that the user's duplicate condition was reported to
// the moderators. It returns true the first time for a given user and false
// afterwards, so callers can rate-limit moderator noise to one message per
// user per process lifetime.
func (s *Store) MarkEscalated(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.escalated[userID]; ok {
		return false
	}
	s.escalated[userID] = struct{}{}
	return true
}
