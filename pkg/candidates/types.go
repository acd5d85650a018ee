package candidates

import "strings"

// Candidate is one username/password pair to attempt
type Candidate struct {
	Username string
	Password string
}

func (c Candidate) String() string {
	return c.Username + ":" + c.Password
}

// JoinUserDomain appends @domain to a username that has no domain part
func JoinUserDomain(username, domain string) string {
	if domain == "" || strings.Contains(username, "@") {
		return username
	}
	return username + "@" + domain
}
