// Package auth verifies the AUTH_SECRET-signed token spec §6's AUTH
// message carries. No example repo in the retrieval pack implements
// token authentication, so this is built directly on crypto/hmac rather
// than an adopted library (see DESIGN.md).
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// Verifier checks a "<base64 claims>.<base64 hmac>" token against a
// shared secret (the CLI/env surface's AUTH_SECRET, spec §6).
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

type claims struct {
	OIDUser string `json:"oidUser"`
	Expiry  int64  `json:"exp"`
}

// Verify returns the player identity bound to a valid, unexpired token.
func (v *Verifier) Verify(token string) (common.PlayerID, error) {
	parts := strings.SplitN(token, ".", 2)
	if len(parts) != 2 {
		return 0, common.NewValidationError("AUTH_MALFORMED_TOKEN")
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return 0, common.NewValidationError("AUTH_MALFORMED_TOKEN")
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write([]byte(parts[0]))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return 0, common.NewValidationError("AUTH_BAD_SIGNATURE")
	}

	rawClaims, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return 0, common.NewValidationError("AUTH_MALFORMED_TOKEN")
	}
	var c claims
	if err := json.Unmarshal(rawClaims, &c); err != nil {
		return 0, common.NewValidationError("AUTH_MALFORMED_TOKEN")
	}
	if c.Expiry > 0 && time.Now().Unix() > c.Expiry {
		return 0, common.NewValidationError("AUTH_TOKEN_EXPIRED")
	}

	id, err := strconv.ParseInt(c.OIDUser, 10, 64)
	if err != nil {
		return 0, common.NewValidationError("AUTH_MALFORMED_TOKEN")
	}
	return common.PlayerID(id), nil
}

// Sign is the inverse operation, used by tests and by whatever issues
// tokens upstream of this service.
func Sign(secret string, oidUser common.PlayerID, expiry time.Time) string {
	c := claims{OIDUser: strconv.FormatInt(int64(oidUser), 10), Expiry: expiry.Unix()}
	raw, _ := json.Marshal(c)
	encoded := base64.RawURLEncoding.EncodeToString(raw)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(encoded))
	sig := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	return encoded + "." + sig
}
