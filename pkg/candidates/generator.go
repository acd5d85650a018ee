package candidates

import (
	"iter"
	"strings"

	golog "github.com/fclairamb/go-log"
)

// ParsePair splits a user:password record at the first ':'.
// Passwords may themselves contain ':'.
func ParsePair(line string) (Candidate, error) {
	username, password, ok := strings.Cut(line, ":")
	if !ok {
		return Candidate{}, ErrMalformedPair
	}
	return Candidate{Username: username, Password: password}, nil
}

// FromPairs yields one candidate per user:password line. Malformed lines
// are logged and skipped.
func FromPairs(lines []string, domain string, logger golog.Logger) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		for _, line := range lines {
			c, err := ParsePair(line)
			if err != nil {
				if logger != nil {
					logger.Warn("Invalid user:pass", "record", line)
				}
				continue
			}
			c.Username = JoinUserDomain(c.Username, domain)
			if !yield(c) {
				return
			}
		}
	}
}

// FromLists yields the product of users and passwords, user-major. When
// userAsPassword is set every user is first tried with its own name.
func FromLists(users, passwords []string, domain string, userAsPassword bool) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if userAsPassword {
			for _, u := range users {
				u = JoinUserDomain(u, domain)
				if !yield(Candidate{Username: u, Password: u}) {
					return
				}
			}
		}

		for _, u := range users {
			u = JoinUserDomain(u, domain)
			for _, p := range passwords {
				if !yield(Candidate{Username: u, Password: p}) {
					return
				}
			}
		}
	}
}
