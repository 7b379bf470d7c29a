package cache

// ScopedKeyer wraps a Keyer with a prefix so several front ends can share
// one backend without reading each other's entries.
//
//	cliKeyer := NewScopedKeyer(NewDefaultKeyer(), "cli:")
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
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

// RankKey generates a prefixed key for ranking results.
func (k *ScopedKeyer) RankKey(graphHash string, opts RankKeyOpts) string {
	return k.prefix + k.inner.RankKey(graphHash, opts)
}

// RenderKey generates a prefixed key for rendered artifacts.
func (k *ScopedKeyer) RenderKey(graphHash string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(graphHash, opts)
}
