package classify

// AADSTS error codes returned by the Azure AD token endpoint
const (
	CodeInvalidUserOrPassword     = 50126
	CodeUserNotInTenant           = 50034
	CodeTenantNotFound            = 50128
	CodeTenantNotFoundForDomain   = 50059
	CodeMFAEnrollmentRequired     = 50079
	CodeMFARequired               = 50076
	CodeExternalSecurityChallenge = 50158
	CodeAccountLocked             = 50053
	CodeAccountDisabled           = 50057
	CodePasswordExpired           = 50055
	CodeInvalidResource           = 500011
	CodeConditionalAccessDenied   = 53003
)

// Classifier maps token endpoint responses to outcomes. The zero value
// treats a password mismatch as a reason to stop trying the user.
type Classifier struct {
	// ConfirmUsersOnMismatch reads CodeInvalidUserOrPassword as proof that
	// the account exists, producing KindValidUser instead of KindInvalidUser.
	ConfirmUsersOnMismatch bool
}

// Classify returns the outcome for r using the zero Classifier
func Classify(r Response) Outcome {
	return Classifier{}.Classify(r)
}

// Classify returns exactly one outcome for r. Unrecognized codes yield KindUnknown.
func (c Classifier) Classify(r Response) Outcome {
	out := Outcome{Code: r.Code, Description: r.Description}

	if r.Success {
		out.Code = 0
		out.Kind = KindValidCredential
		return out
	}

	switch r.Code {
	case CodeInvalidResource:
		// the password was accepted before the resource was rejected
		out.Kind = KindValidCredential
	case CodeInvalidUserOrPassword:
		if c.ConfirmUsersOnMismatch {
			out.Kind = KindValidUser
		} else {
			out.Kind = KindInvalidUser
		}
	case CodeTenantNotFound, CodeTenantNotFoundForDomain, CodeUserNotInTenant:
		out.Kind = KindInvalidUser
	case CodeMFAEnrollmentRequired, CodeMFARequired:
		out.Kind = KindValidCredential
		out.Restriction = RestrictionMFA
	case CodeExternalSecurityChallenge:
		out.Kind = KindValidCredential
		out.Restriction = RestrictionExternalMFA
	case CodeConditionalAccessDenied:
		out.Kind = KindValidCredential
		out.Restriction = RestrictionConditionalAccess
	case CodePasswordExpired:
		out.Kind = KindValidCredential
		out.Restriction = RestrictionExpired
	case CodeAccountLocked:
		out.Kind = KindLockedUser
	case CodeAccountDisabled:
		out.Kind = KindDisabledUser
	default:
		out.Kind = KindUnknown
	}
	return out
}
