package aad

import (
	"context"
	"net/http"
	"sync"

	"github.com/mmcdole/azspray/pkg/classify"
)

// Account is one user known to a MemoryTenant
type Account struct {
	Password string
	// Code is returned instead of success when the password matches, e.g.
	// classify.CodeMFARequired. Zero means a clean sign-in.
	Code int
	// LockedCode, when set, is returned for every attempt regardless of password
	LockedCode int
}

// MemoryTenant answers password grants from an in-memory account table.
// It mirrors the token endpoint's error codes and counts attempts per user.
type MemoryTenant struct {
	mu       sync.Mutex
	accounts map[string]Account
	attempts map[string]int
	failures map[string]error
}

// NewMemoryTenant creates an empty tenant
func NewMemoryTenant() *MemoryTenant {
	return &MemoryTenant{
		accounts: make(map[string]Account),
		attempts: make(map[string]int),
		failures: make(map[string]error),
	}
}

// AddAccount adds or replaces an account
func (t *MemoryTenant) AddAccount(username string, account Account) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.accounts[username] = account
}

// FailWith makes every attempt for username return err, simulating a
// transport failure
func (t *MemoryTenant) FailWith(username string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures[username] = err
}

// Attempts returns how many attempts were made for username
func (t *MemoryTenant) Attempts(username string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[username]
}

// TotalAttempts returns the number of attempts across all users
func (t *MemoryTenant) TotalAttempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, n := range t.attempts {
		total += n
	}
	return total
}

// Attempt implements the same contract as Client.Attempt
func (t *MemoryTenant) Attempt(ctx context.Context, username, password string) (classify.Response, error) {
	t.mu.Lock()
	t.attempts[username]++
	account, exists := t.accounts[username]
	failure := t.failures[username]
	t.mu.Unlock()

	if failure != nil {
		return classify.Response{}, failure
	}
	if err := ctx.Err(); err != nil {
		return classify.Response{}, err
	}

	switch {
	case !exists:
		return failed(classify.CodeUserNotInTenant, "AADSTS50034: The user account does not exist in the directory."), nil
	case account.LockedCode != 0:
		return failed(account.LockedCode, "AADSTS: account is not available."), nil
	case account.Password != password:
		return failed(classify.CodeInvalidUserOrPassword, "AADSTS50126: Error validating credentials due to invalid username or password."), nil
	case account.Code != 0:
		return failed(account.Code, "AADSTS: additional sign-in requirement."), nil
	default:
		return classify.Response{Success: true, StatusCode: http.StatusOK}, nil
	}
}

func failed(code int, description string) classify.Response {
	return classify.Response{StatusCode: http.StatusBadRequest, Code: code, Description: description}
}
