package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"emberc/internal/translator"
)

// Digest is a SHA-256 cache key.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports an unset digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// Combine hashes content followed by deps. The order of deps is part of
// the key.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Key is the cache key of a script description translated with opts.
// Tracing and timing switches do not change the output and are left out.
func Key(raw []byte, opts translator.Options) Digest {
	return Combine(sha256.Sum256(raw), optionsDigest(opts))
}

func optionsDigest(opts translator.Options) Digest {
	h := sha256.New()
	_, _ = h.Write([]byte("target=" + opts.Target.String()))
	_, _ = h.Write([]byte(";rapid=" + strconv.FormatBool(opts.RapidIteration)))
	_, _ = h.Write([]byte(";stats=" + strconv.FormatBool(opts.StatScopes)))
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}
