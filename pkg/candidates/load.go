package candidates

import (
	"fmt"
	"iter"

	golog "github.com/fclairamb/go-log"
)

// Options selects the input mode. List mode is used when Users is set,
// pair mode otherwise.
type Options struct {
	Pairs          []string
	Users          []string
	Passwords      []string
	Domain         string
	UserAsPassword bool
}

// Load reads every input up front and returns the candidate sequence
func (r *Reader) Load(opts Options, logger golog.Logger) (iter.Seq[Candidate], error) {
	if len(opts.Users) > 0 {
		users, err := r.ReadTargets(opts.Users, false)
		if err != nil {
			return nil, fmt.Errorf("reading users: %w", err)
		}
		passwords, err := r.ReadTargets(opts.Passwords, false)
		if err != nil {
			return nil, fmt.Errorf("reading passwords: %w", err)
		}
		if len(users) == 0 || (len(passwords) == 0 && !opts.UserAsPassword) {
			return nil, ErrNoCandidates
		}
		if logger != nil {
			logger.Info("Loaded user and password lists", "users", len(users), "passwords", len(passwords))
		}
		return FromLists(users, passwords, opts.Domain, opts.UserAsPassword), nil
	}

	pairs, err := r.ReadTargets(opts.Pairs, true)
	if err != nil {
		return nil, fmt.Errorf("reading credentials: %w", err)
	}
	if len(pairs) == 0 {
		return nil, ErrNoCandidates
	}
	if logger != nil {
		logger.Info("Loaded credential records", "records", len(pairs))
	}
	return FromPairs(pairs, opts.Domain, logger), nil
}
