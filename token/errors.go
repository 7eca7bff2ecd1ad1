package token

import "errors"

var (
	// ErrMalformedToken covers parse failures and invalid signatures.
	ErrMalformedToken = errors.New("token: malformed or invalid signature")
	// ErrExpiredToken covers tokens outside their validity window.
	ErrExpiredToken = errors.New("token: token expired")
	// ErrWrongTokenKind covers an access token used as refresh or vice versa.
	ErrWrongTokenKind = errors.New("token: wrong token kind")
	// ErrRevokedToken covers tokens present in the revocation ledger. The
	// issuer itself never checks the ledger; callers return this error.
	ErrRevokedToken = errors.New("token: token revoked")
)
