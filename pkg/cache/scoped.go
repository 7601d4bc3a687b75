package cache

// ScopedKeyer wraps a Keyer with a prefix so several deployments can share
// one Redis database without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "ideconfy:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// IdenticonKey generates a prefixed identicon key.
func (k *ScopedKeyer) IdenticonKey(digest string, size int) string {
	return k.prefix + k.inner.IdenticonKey(digest, size)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(digest string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(digest, opts)
}
