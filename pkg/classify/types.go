package classify

import "fmt"

// Kind is the semantic result of one authentication attempt
type Kind int

const (
	// KindUnknown is an error code the classifier does not recognize
	KindUnknown Kind = iota
	// KindValidCredential means the password is correct, possibly with a restriction
	KindValidCredential
	// KindValidUser means the account exists but the password is not known
	KindValidUser
	// KindInvalidUser means the account should not be attempted again
	KindInvalidUser
	// KindLockedUser means the account is locked out
	KindLockedUser
	// KindDisabledUser means the account is disabled
	KindDisabledUser
)

func (k Kind) String() string {
	switch k {
	case KindValidCredential:
		return "valid_credential"
	case KindValidUser:
		return "valid_user"
	case KindInvalidUser:
		return "invalid_user"
	case KindLockedUser:
		return "locked_user"
	case KindDisabledUser:
		return "disabled_user"
	default:
		return "unknown"
	}
}

// Restriction qualifies a valid credential that could not complete sign-in
type Restriction int

const (
	RestrictionNone Restriction = iota
	RestrictionMFA
	RestrictionExternalMFA
	RestrictionConditionalAccess
	RestrictionExpired
)

// String returns the label printed in front of a valid credential
func (r Restriction) String() string {
	switch r {
	case RestrictionMFA:
		return "MFA"
	case RestrictionExternalMFA:
		return "External MFA"
	case RestrictionConditionalAccess:
		return "Conditional Access Policy"
	case RestrictionExpired:
		return "Expired"
	default:
		return ""
	}
}

// Response is the raw signal returned by one password-grant attempt
type Response struct {
	// Success is set when the token endpoint answered HTTP 200
	Success bool
	// StatusCode is the HTTP status of the response
	StatusCode int
	// Code is the first entry of error_codes in a failure body
	Code int
	// Description is the error_description of a failure body
	Description string
}

// Outcome is the classification of a Response
type Outcome struct {
	Kind        Kind
	Restriction Restriction
	Code        int
	Description string
}

func (o Outcome) String() string {
	if o.Kind == KindValidCredential && o.Restriction != RestrictionNone {
		return fmt.Sprintf("%s(%s)", o.Kind, o.Restriction)
	}
	if o.Kind == KindUnknown {
		return fmt.Sprintf("%s(%d)", o.Kind, o.Code)
	}
	return o.Kind.String()
}
