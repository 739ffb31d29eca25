package memory

import (
	"crypto/x509"
	"time"

	"github.com/patrickmn/go-cache"
)

// CertificateCache keeps provider signing certificates by their URL so a
// burst of webhook deliveries triggers a single download.
type CertificateCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewCertificateCache(ttl time.Duration) *CertificateCache {
	return &CertificateCache{
		cache: cache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (c *CertificateCache) Get(url string) (*x509.Certificate, bool) {
	if x, found := c.cache.Get(url); found {
		return x.(*x509.Certificate), true
	}
	return nil, false
}

// Set never keeps a certificate past its NotAfter.
func (c *CertificateCache) Set(url string, cert *x509.Certificate) {
	ttl := c.ttl
	if remaining := time.Until(cert.NotAfter); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}
	c.cache.Set(url, cert, ttl)
}
