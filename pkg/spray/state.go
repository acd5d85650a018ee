package spray

import (
	"fmt"
	"sync"

	golog "github.com/fclairamb/go-log"

	"github.com/mmcdole/azspray/pkg/classify"
)

// Reporter receives one result line per discovered fact
type Reporter interface {
	Report(line string) error
}

// Summary counts the users in each terminal set
type Summary struct {
	Credentials int
	ValidUsers  int
	Invalid     int
	Locked      int
	Disabled    int
}

// State records what is known about each user. A user enters at most one
// set and never leaves it; the only exception is a confirmed-valid user whose
// password is found later. Every method is safe for concurrent use and every
// check-then-record runs under the same mutex, so a fact is reported once.
type State struct {
	reporter Reporter
	logger   golog.Logger

	mu          sync.Mutex
	credentials map[string]string
	validUsers  map[string]struct{}
	invalid     map[string]struct{}
	locked      map[string]struct{}
	disabled    map[string]struct{}
}

// NewState creates an empty State reporting to reporter
func NewState(reporter Reporter, logger golog.Logger) *State {
	return &State{
		reporter:    reporter,
		logger:      logger,
		credentials: make(map[string]string),
		validUsers:  make(map[string]struct{}),
		invalid:     make(map[string]struct{}),
		locked:      make(map[string]struct{}),
		disabled:    make(map[string]struct{}),
	}
}

// HasKnownOutcome reports whether user needs no further attempts: its
// password was found, or it is invalid, locked or disabled
func (s *State) HasKnownOutcome(user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolvedLocked(user)
}

func (s *State) resolvedLocked(user string) bool {
	if _, ok := s.credentials[user]; ok {
		return true
	}
	return has(s.invalid, user) || has(s.locked, user) || has(s.disabled, user)
}

// RecordValidCredential stores password for user and reports
// "{restriction}:{user}:{password}". The first credential found for a user
// wins; later calls return false and report nothing.
func (s *State) RecordValidCredential(user, password string, restriction classify.Restriction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolvedLocked(user) {
		s.debug("Ignoring credential for resolved user", "user", user, "password", password)
		return false, nil
	}
	s.credentials[user] = password
	return true, s.report(fmt.Sprintf("%s:%s:%s", restriction, user, password))
}

// RecordValidUser marks user as existing with an unknown password and
// reports ":{user}:"
func (s *State) RecordValidUser(user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolvedLocked(user) || has(s.validUsers, user) {
		return false, nil
	}
	s.validUsers[user] = struct{}{}
	return true, s.report(fmt.Sprintf(":%s:", user))
}

// RecordInvalidUser marks user invalid. It is a diagnostic, not a result line.
func (s *State) RecordInvalidUser(user, description string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolvedLocked(user) || has(s.validUsers, user) {
		return false
	}
	s.invalid[user] = struct{}{}
	s.debug("Invalid user", "user", user, "description", description)
	return true
}

// RecordLockedUser marks user locked and warns about it
func (s *State) RecordLockedUser(user string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolvedLocked(user) || has(s.validUsers, user) {
		return false
	}
	s.locked[user] = struct{}{}
	if s.logger != nil {
		s.logger.Warn("Locked user", "user", user)
	}
	return true
}

// RecordDisabledUser marks user disabled and reports "Disabled:{user}:"
func (s *State) RecordDisabledUser(user string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.resolvedLocked(user) || has(s.validUsers, user) {
		return false, nil
	}
	s.disabled[user] = struct{}{}
	return true, s.report(fmt.Sprintf("Disabled:%s:", user))
}

// Summary returns the size of each set
func (s *State) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Summary{
		Credentials: len(s.credentials),
		ValidUsers:  len(s.validUsers),
		Invalid:     len(s.invalid),
		Locked:      len(s.locked),
		Disabled:    len(s.disabled),
	}
}

// report must be called with mu held
func (s *State) report(line string) error {
	if s.reporter == nil {
		return nil
	}
	return s.reporter.Report(line)
}

func (s *State) debug(message string, keyvals ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(message, keyvals...)
	}
}

func has(set map[string]struct{}, user string) bool {
	_, ok := set[user]
	return ok
}
