package cache

// ScopedKeyer prefixes every key of an inner Keyer. The HTTP server uses
// it to keep its entries apart from CLI entries in a shared Redis.
//
//	apiKeyer := NewScopedKeyer(NewDefaultKeyer(), "api:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the DefaultKeyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(jobHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(jobHash, opts)
}

// ReportKey generates a prefixed report key.
func (k *ScopedKeyer) ReportKey(jobHash string) string {
	return k.prefix + k.inner.ReportKey(jobHash)
}
