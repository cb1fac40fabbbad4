package util

import (
	"crypto/rand"
	"encoding/hex"
)

// slugAlphabet is nanoid's URL-safe alphabet folded to lowercase, the
// character set every slug ever issued by this service is drawn from.
const slugAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz_-"

const SlugLen = 9

// GenSlug returns a fixed-length, lowercase, URL-safe identifier from a
// cryptographically strong source. It does not check uniqueness; the
// store's unique index on slug is the sole authority for that.
func GenSlug() string {
	// rejection sampling keeps the distribution uniform over the alphabet
	const max = byte(len(slugAlphabet) * (256 / len(slugAlphabet)))
	out := make([]byte, 0, SlugLen)
	buf := make([]byte, SlugLen*2)
	for {
		if _, err := rand.Read(buf); err != nil {
			panic("util: crypto/rand unavailable: " + err.Error())
		}
		for _, b := range buf {
			if b >= max {
				continue
			}
			out = append(out, slugAlphabet[int(b)%len(slugAlphabet)])
			if len(out) == SlugLen {
				return string(out)
			}
		}
	}
}

// GenCreatorID returns n random bytes hex-encoded. It is an opaque grouping
// key for anonymous creators and carries no uniqueness requirement.
func GenCreatorID(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic("util: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
