package core

import (
	"strings"

	emailverifier "github.com/AfterShip/email-verifier"
)

var verifier = newEmailVerifier()

func newEmailVerifier() *emailverifier.Verifier {
	verifier := emailverifier.NewVerifier()

	verifier.DisableSMTPCheck()
	verifier.DisableGravatarCheck()
	verifier.DisableDomainSuggest()
	verifier.DisableAutoUpdateDisposable()

	return verifier
}

// NormalizeEmail folds the representational variants an account lookup must ignore: surrounding space and case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail checks the address syntax only. No network lookups are made.
func ValidEmail(email string) bool {
	return verifier.ParseAddress(email).Valid
}
