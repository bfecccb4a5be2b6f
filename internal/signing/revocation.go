package signing

import (
	"context"
	"crypto/x509"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// RevocationStore answers whether a certificate serial has been revoked.
// Implementations must be safe for concurrent reads.
type RevocationStore interface {
	IsRevoked(ctx context.Context, serial uint64) (bool, error)
}

// MemoryRevocationStore is an in-memory RevocationStore for tests and
// offline use.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	revoked map[uint64]struct{}
}

// NewMemoryRevocationStore returns an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{revoked: make(map[uint64]struct{})}
}

// Revoke marks a serial as revoked.
func (s *MemoryRevocationStore) Revoke(serial uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[serial] = struct{}{}
}

// IsRevoked implements RevocationStore.
func (s *MemoryRevocationStore) IsRevoked(_ context.Context, serial uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[serial]
	return ok, nil
}

// CRLRevocationStore periodically fetches a DER-encoded CRL over HTTP
// and serves membership checks from the last successful fetch.
type CRLRevocationStore struct {
	url      string
	interval time.Duration
	client   *http.Client
	logger   *slog.Logger

	mu      sync.RWMutex
	revoked map[uint64]struct{}
	fetched bool
}

// NewCRLRevocationStore creates a store polling url every interval.
// Call Run to start the refresh loop.
func NewCRLRevocationStore(url string, interval time.Duration, logger *slog.Logger) *CRLRevocationStore {
	return &CRLRevocationStore{
		url:      url,
		interval: interval,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger,
		revoked:  make(map[uint64]struct{}),
	}
}

// Run refreshes the CRL immediately and then on every tick until ctx is
// cancelled. Fetch failures keep the previous list and are logged.
func (s *CRLRevocationStore) Run(ctx context.Context) {
	if err := s.Refresh(ctx); err != nil {
		s.logger.Error("initial CRL fetch failed", slog.String("url", s.url), slog.Any("error", err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error("CRL refresh failed", slog.String("url", s.url), slog.Any("error", err))
			}
		}
	}
}

// Refresh fetches the CRL once, replacing the revocation list on
// success.
func (s *CRLRevocationStore) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("CRL endpoint returned %s", resp.Status)
	}

	der, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	crl, err := x509.ParseRevocationList(der)
	if err != nil {
		return fmt.Errorf("parsing CRL: %w", err)
	}

	next := make(map[uint64]struct{}, len(crl.RevokedCertificateEntries))
	for _, entry := range crl.RevokedCertificateEntries {
		next[entry.SerialNumber.Uint64()] = struct{}{}
	}

	s.mu.Lock()
	s.revoked = next
	s.fetched = true
	s.mu.Unlock()

	s.logger.Debug("CRL refreshed", slog.Int("revoked", len(next)))
	return nil
}

// IsRevoked implements RevocationStore. It errors if no CRL has been
// fetched yet, so a missing list never reads as "nothing revoked".
func (s *CRLRevocationStore) IsRevoked(_ context.Context, serial uint64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.fetched {
		return false, fmt.Errorf("revocation list has not been fetched yet")
	}
	_, ok := s.revoked[serial]
	return ok, nil
}
