package identicon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image/color"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/etulastrada/ideconfy/pkg/errors"
)

const (
	// DefaultSize is the default grid side length.
	DefaultSize = 5

	// DigestLength is the number of hex digits in a Digest.
	DigestLength = sha256.Size * 2

	// seedLength is the length of a RandomSeed token.
	seedLength = 6
)

// Digest is the lowercase hex SHA-256 of a content string.
type Digest string

// NewDigest hashes content. Every call with the same content returns the
// same Digest on every platform.
func NewDigest(content string) Digest {
	sum := sha256.Sum256([]byte(content))
	return Digest(hex.EncodeToString(sum[:]))
}

// Nibble returns the numeric value (0-15) of the hex digit at index i.
func (d Digest) Nibble(i int) (int, error) {
	if i < 0 || i >= len(d) {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "digest index %d out of range (digest has %d digits)", i, len(d))
	}
	v, err := strconv.ParseUint(string(d[i]), 16, 8)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "digest digit %d is not hex", i)
	}
	return int(v), nil
}

// Color is the fill color of an identicon.
type Color struct {
	R, G, B uint8
}

// ColorFromDigest reads the first six hex digits of d as an RGB triple.
func ColorFromDigest(d Digest) (Color, error) {
	if len(d) < 6 {
		return Color{}, errors.New(errors.ErrCodeInvalidInput, "digest too short for a color: %q", d)
	}
	raw, err := hex.DecodeString(string(d[:6]))
	if err != nil {
		return Color{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode color")
	}
	return Color{R: raw[0], G: raw[1], B: raw[2]}, nil
}

// Hex returns the color as "#rrggbb".
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// NRGBA returns the opaque image/color value.
func (c Color) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// MarshalText encodes the color as "#rrggbb".
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes "#rrggbb".
func (c *Color) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "#")
	if len(s) != 6 {
		return errors.New(errors.ErrCodeInvalidInput, "invalid color %q", text)
	}
	parsed, err := ColorFromDigest(Digest(strings.ToLower(s)))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Identicon is the visual fingerprint of a content string. Digest, Color
// and Pattern are derived from Content and never change.
type Identicon struct {
	Content string  `json:"content"`
	Digest  Digest  `json:"digest"`
	Color   Color   `json:"color"`
	Pattern Pattern `json:"pattern"`
}

// Size returns the grid side length.
func (id Identicon) Size() int {
	return id.Pattern.Size()
}

// Generate derives the identicon for content on a size x size grid.
// It fails with [errors.ErrCodeInvalidConfig] when size is outside
// 1..[MaxSize].
func Generate(content string, size int) (Identicon, error) {
	if err := ValidateSize(size); err != nil {
		return Identicon{}, err
	}

	digest := NewDigest(content)
	c, err := ColorFromDigest(digest)
	if err != nil {
		return Identicon{}, err
	}
	bits, err := Bits(digest, size)
	if err != nil {
		return Identicon{}, err
	}

	return Identicon{
		Content: content,
		Digest:  digest,
		Color:   c,
		Pattern: Mirror(bits, size),
	}, nil
}

// MustGenerate is like Generate but panics on an invalid size.
// Intended for constant sizes known to be valid.
func MustGenerate(content string, size int) Identicon {
	id, err := Generate(content, size)
	if err != nil {
		panic(err)
	}
	return id
}

// RandomSeed returns a short random base-36 token, used as content for the
// header identicon when the user has not typed anything. A nil r uses the
// package-level source.
func RandomSeed(r *rand.Rand) string {
	var n uint64
	if r != nil {
		n = r.Uint64()
	} else {
		n = rand.Uint64()
	}
	s := strconv.FormatUint(n, 36)
	for len(s) < seedLength {
		s = "0" + s
	}
	return s[len(s)-seedLength:]
}
