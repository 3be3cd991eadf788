package auth

import (
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
)

// tempTokenBytes is the entropy of a raw one-time token: 32 random bytes,
// hex-encoded to 64 characters.
const tempTokenBytes = 32

// GenerateTemporaryToken mints a one-time token for email verification or
// password reset. The raw value is handed to the user (embedded in a mail
// link) and never stored; only the digest and expiry are persisted.
func GenerateTemporaryToken(validity time.Duration) (raw, hash string, expires time.Time, err error) {
	raw, err = common.MakeRandHexString(tempTokenBytes)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return raw, cryptox.DigestToken(raw), time.Now().Add(validity), nil
}

// HashTemporaryToken re-derives the stored digest from a caller-supplied raw
// token so the account can be looked up by hash.
func HashTemporaryToken(raw string) string {
	return cryptox.DigestToken(raw)
}
