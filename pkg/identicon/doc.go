// Package identicon derives a deterministic, symmetric visual fingerprint
// from arbitrary text.
//
// # Overview
//
// An [Identicon] is a pure function of its content string:
//
//  1. The content is hashed with SHA-256 into a 64-digit lowercase hex [Digest].
//  2. The first six digits give the fill [Color].
//  3. [Bits] reads the left half of a size x size grid from the digest: bit
//     (i, j) for j < ceil(size/2) is on when digit i*size+j is even.
//  4. [Mirror] copies each decided column j < size/2 onto column size-1-j.
//
// Steps 3 and 4 are separate so each can be tested on its own.
//
//	id, err := identicon.Generate("hello", identicon.DefaultSize)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(id.Color.Hex())
//	fmt.Println(id.Pattern)
//
// # Grid Size
//
// The largest digit read for a grid of side n is (n-1)*n + ceil(n/2) - 1,
// so a 64-digit digest supports sizes 1 through [MaxSize] (8). Larger sizes
// fail with errors.ErrCodeInvalidConfig before anything is rendered.
//
// The color never depends on size; the pattern does.
package identicon
