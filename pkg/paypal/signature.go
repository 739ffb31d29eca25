package paypal

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	HeaderTransmissionID   = "PAYPAL-TRANSMISSION-ID"
	HeaderTransmissionTime = "PAYPAL-TRANSMISSION-TIME"
	HeaderCertURL          = "PAYPAL-CERT-URL"
	HeaderAuthAlgo         = "PAYPAL-AUTH-ALGO"
	HeaderTransmissionSig  = "PAYPAL-TRANSMISSION-SIG"

	AlgoSHA256WithRSA = "SHA256withRSA"

	maxCertBytes = 64 << 10
)

var (
	ErrMissingHeaders       = errors.New("paypal: missing transmission headers")
	ErrUnsupportedAlgorithm = errors.New("paypal: unsupported signature algorithm")
	ErrInvalidSignature     = errors.New("paypal: signature does not match")
	ErrCertificate          = errors.New("paypal: signing certificate rejected")
)

// TransmissionHeaders are the signature headers of one webhook delivery.
type TransmissionHeaders struct {
	TransmissionID   string
	TransmissionTime string
	CertURL          string
	AuthAlgo         string
	TransmissionSig  string
}

// HeadersFrom reads the transmission headers through get, which is
// expected to be case-insensitive.
func HeadersFrom(get func(key string) string) TransmissionHeaders {
	return TransmissionHeaders{
		TransmissionID:   strings.TrimSpace(get(HeaderTransmissionID)),
		TransmissionTime: strings.TrimSpace(get(HeaderTransmissionTime)),
		CertURL:          strings.TrimSpace(get(HeaderCertURL)),
		AuthAlgo:         strings.TrimSpace(get(HeaderAuthAlgo)),
		TransmissionSig:  strings.TrimSpace(get(HeaderTransmissionSig)),
	}
}

func (h TransmissionHeaders) Complete() bool {
	return h.TransmissionID != "" && h.TransmissionTime != "" && h.CertURL != "" &&
		h.AuthAlgo != "" && h.TransmissionSig != ""
}

// CanonicalMessage builds the signed string:
// transmissionId|transmissionTime|webhookId|base64(sha256(body)).
func CanonicalMessage(h TransmissionHeaders, webhookID string, body []byte) string {
	sum := sha256.Sum256(body)
	return strings.Join([]string{
		h.TransmissionID,
		h.TransmissionTime,
		webhookID,
		base64.StdEncoding.EncodeToString(sum[:]),
	}, "|")
}

type CertFetcher interface {
	Fetch(ctx context.Context, certURL string) (*x509.Certificate, error)
}

type CertCache interface {
	Get(certURL string) (*x509.Certificate, bool)
	Set(certURL string, cert *x509.Certificate)
}

type SignatureVerifier struct {
	fetcher CertFetcher
	cache   CertCache
	now     func() time.Time
}

// NewSignatureVerifier builds a verifier. cache may be nil.
func NewSignatureVerifier(fetcher CertFetcher, cache CertCache) *SignatureVerifier {
	return &SignatureVerifier{fetcher: fetcher, cache: cache, now: time.Now}
}

// Verify checks the delivery signature against the provider certificate.
func (v *SignatureVerifier) Verify(ctx context.Context, webhookID string, body []byte, h TransmissionHeaders) error {
	if !h.Complete() || webhookID == "" {
		return ErrMissingHeaders
	}
	if !strings.EqualFold(h.AuthAlgo, AlgoSHA256WithRSA) {
		return fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, h.AuthAlgo)
	}

	sig, err := base64.StdEncoding.DecodeString(h.TransmissionSig)
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", ErrInvalidSignature)
	}

	cert, err := v.certificate(ctx, h.CertURL)
	if err != nil {
		return err
	}

	now := v.now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return fmt.Errorf("%w: outside validity window", ErrCertificate)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: not an RSA key", ErrCertificate)
	}

	digest := sha256.Sum256([]byte(CanonicalMessage(h, webhookID, body)))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig); err != nil {
		return ErrInvalidSignature
	}
	return nil
}

func (v *SignatureVerifier) certificate(ctx context.Context, certURL string) (*x509.Certificate, error) {
	if v.cache != nil {
		if cert, ok := v.cache.Get(certURL); ok {
			return cert, nil
		}
	}
	cert, err := v.fetcher.Fetch(ctx, certURL)
	if err != nil {
		return nil, err
	}
	if v.cache != nil {
		v.cache.Set(certURL, cert)
	}
	return cert, nil
}

// HTTPCertFetcher downloads PEM certificates from provider hosts only.
type HTTPCertFetcher struct {
	client       *http.Client
	allowedHosts []string
}

func NewHTTPCertFetcher(timeout time.Duration) *HTTPCertFetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPCertFetcher{
		client:       &http.Client{Timeout: timeout},
		allowedHosts: []string{"paypal.com"},
	}
}

func (f *HTTPCertFetcher) allowed(certURL string) bool {
	u, err := url.Parse(certURL)
	if err != nil || u.Scheme != "https" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range f.allowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}
	return false
}

func (f *HTTPCertFetcher) Fetch(ctx context.Context, certURL string) (*x509.Certificate, error) {
	if !f.allowed(certURL) {
		return nil, fmt.Errorf("%w: untrusted cert url %q", ErrCertificate, certURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificate, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: cert download returned %d", ErrCertificate, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCertBytes))
	if err != nil {
		return nil, classifyTransportError(err)
	}
	return ParseCertificatePEM(raw)
}

// ParseCertificatePEM returns the first certificate in a PEM bundle.
func ParseCertificatePEM(raw []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(raw)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("%w: no PEM certificate", ErrCertificate)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCertificate, err)
	}
	return cert, nil
}
