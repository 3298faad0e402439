package classroom

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	codeLen     = 6
	codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// GenerateCode returns a random join code of codeLen characters drawn from
// codeCharset. Uniqueness is enforced by the database; callers retry on
// collision.
func GenerateCode() (string, error) {
	buf := make([]byte, codeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "reading random bytes")
	}
	for i, b := range buf {
		buf[i] = codeCharset[int(b)%len(codeCharset)]
	}
	return string(buf), nil
}
