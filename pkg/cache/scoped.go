package cache

// ScopedKeyer wraps a Keyer with a prefix.
//
// The server uses it to keep results of different deployments apart when
// they share one Redis instance:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "wsm:prod:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer falls
// back to [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SolveKey generates a prefixed solve key.
func (k *ScopedKeyer) SolveKey(problemHash string, opts SolveKeyOpts) string {
	return k.prefix + k.inner.SolveKey(problemHash, opts)
}

// SummaryKey generates a prefixed summary key.
func (k *ScopedKeyer) SummaryKey(problemHash string) string {
	return k.prefix + k.inner.SummaryKey(problemHash)
}
