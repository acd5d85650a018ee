package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name        string
		resp        Response
		kind        Kind
		restriction Restriction
	}{
		{"success", Response{Success: true, StatusCode: 200}, KindValidCredential, RestrictionNone},
		{"invalid resource", Response{StatusCode: 400, Code: 500011}, KindValidCredential, RestrictionNone},
		{"wrong password", Response{StatusCode: 400, Code: 50126}, KindInvalidUser, RestrictionNone},
		{"user not in tenant", Response{StatusCode: 400, Code: 50034}, KindInvalidUser, RestrictionNone},
		{"tenant not found", Response{StatusCode: 400, Code: 50128}, KindInvalidUser, RestrictionNone},
		{"tenant not found for domain", Response{StatusCode: 400, Code: 50059}, KindInvalidUser, RestrictionNone},
		{"mfa enrollment", Response{StatusCode: 400, Code: 50079}, KindValidCredential, RestrictionMFA},
		{"mfa required", Response{StatusCode: 400, Code: 50076}, KindValidCredential, RestrictionMFA},
		{"external challenge", Response{StatusCode: 400, Code: 50158}, KindValidCredential, RestrictionExternalMFA},
		{"conditional access", Response{StatusCode: 400, Code: 53003}, KindValidCredential, RestrictionConditionalAccess},
		{"expired", Response{StatusCode: 401, Code: 50055}, KindValidCredential, RestrictionExpired},
		{"locked", Response{StatusCode: 400, Code: 50053}, KindLockedUser, RestrictionNone},
		{"disabled", Response{StatusCode: 400, Code: 50057}, KindDisabledUser, RestrictionNone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := Classify(tc.resp)
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, tc.restriction, out.Restriction)
		})
	}
}

func TestClassify_Unknown(t *testing.T) {
	for _, code := range []int{0, -1, 1, 50000, 50196, 700016, 90002} {
		out := Classify(Response{StatusCode: 400, Code: code, Description: "AADSTS something"})
		assert.Equal(t, KindUnknown, out.Kind, "code %d", code)
		assert.Equal(t, code, out.Code)
		assert.Equal(t, "AADSTS something", out.Description)
	}
}

func TestClassifier_ConfirmUsersOnMismatch(t *testing.T) {
	c := Classifier{ConfirmUsersOnMismatch: true}

	assert.Equal(t, KindValidUser, c.Classify(Response{Code: CodeInvalidUserOrPassword}).Kind)
	// other codes are unaffected
	assert.Equal(t, KindInvalidUser, c.Classify(Response{Code: CodeUserNotInTenant}).Kind)
	assert.Equal(t, KindLockedUser, c.Classify(Response{Code: CodeAccountLocked}).Kind)
}

func TestRestrictionString(t *testing.T) {
	assert.Equal(t, "", RestrictionNone.String())
	assert.Equal(t, "MFA", RestrictionMFA.String())
	assert.Equal(t, "External MFA", RestrictionExternalMFA.String())
	assert.Equal(t, "Conditional Access Policy", RestrictionConditionalAccess.String())
	assert.Equal(t, "Expired", RestrictionExpired.String())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "valid_credential", Outcome{Kind: KindValidCredential}.String())
	assert.Equal(t, "valid_credential(MFA)", Outcome{Kind: KindValidCredential, Restriction: RestrictionMFA}.String())
	assert.Equal(t, "unknown(90002)", Outcome{Kind: KindUnknown, Code: 90002}.String())
	assert.Equal(t, "locked_user", Outcome{Kind: KindLockedUser}.String())
}
