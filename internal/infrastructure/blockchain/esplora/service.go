// Package esplora implements the blockchain backend against the Esplora
// (Blockstream/Blockchain.info style) HTTP API of an Elements chain.
package esplora

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/liquid-wallet/internal/core/ports"
	"github.com/tdex-network/liquid-wallet/pkg/circuitbreaker"
	"github.com/tdex-network/liquid-wallet/pkg/util"
	"go.uber.org/ratelimit"
)

// ServiceOpts groups the parameters to create an esplora backend.
type ServiceOpts struct {
	APIURL string
	// RequestsPerSecond throttles the outgoing calls, esplora instances tend
	// to rate-limit aggressively. Zero means 10.
	RequestsPerSecond int
	// TxFetchConcurrency is the number of parallel transaction downloads
	// during a scan. Zero means 5.
	TxFetchConcurrency int
	// GapLimit overrides the scan request one when positive.
	GapLimit uint32
}

func (o ServiceOpts) validate() error {
	if o.APIURL == "" {
		return fmt.Errorf("missing esplora api url")
	}
	if !strings.HasPrefix(o.APIURL, "http://") && !strings.HasPrefix(o.APIURL, "https://") {
		return fmt.Errorf("esplora api url must be a valid http(s) endpoint")
	}
	return nil
}

type service struct {
	apiURL           string
	breaker          *gobreaker.CircuitBreaker
	limiter          ratelimit.Limiter
	fetchConcurrency int
	gapLimit         uint32
}

// NewService returns a ports.BlockchainBackend talking to the esplora
// instance at the given URL, after a connectivity health check.
func NewService(opts ServiceOpts) (ports.BlockchainBackend, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid esplora opts: %s", err)
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 10
	}
	concurrency := opts.TxFetchConcurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	svc := &service{
		apiURL:           strings.TrimSuffix(opts.APIURL, "/"),
		breaker:          circuitbreaker.NewCircuitBreaker("esplora"),
		limiter:          ratelimit.New(rps),
		fetchConcurrency: concurrency,
		gapLimit:         opts.GapLimit,
	}
	if err := svc.healthCheck(); err != nil {
		return nil, fmt.Errorf("health check: %w", err)
	}
	return svc, nil
}

func (s *service) Close() {}

func (s *service) healthCheck() error {
	_, err := s.tipHeight()
	return err
}

func (s *service) tipHeight() (uint32, error) {
	body, err := s.get(fmt.Sprintf("%s/blocks/tip/height", s.apiURL))
	if err != nil {
		return 0, err
	}
	height, err := strconv.ParseUint(strings.TrimSpace(body), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("unexpected tip height response: %s", err)
	}
	return uint32(height), nil
}

func (s *service) tipHash() (string, error) {
	body, err := s.get(fmt.Sprintf("%s/blocks/tip/hash", s.apiURL))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(body), nil
}

// get performs a throttled GET behind the circuit breaker, treating any
// non-200 status as a failure.
func (s *service) get(url string) (string, error) {
	body, err := s.breaker.Execute(func() (interface{}, error) {
		s.limiter.Take()
		status, resp, err := util.NewHTTPRequest("GET", url, "", nil)
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, fmt.Errorf("GET %s: %s", url, resp)
		}
		return resp, nil
	})
	if err != nil {
		return "", err
	}
	return body.(string), nil
}

// getMaybeMissing is like get but reports a 404 without tripping the
// breaker, used to detect evicted transactions.
func (s *service) getMaybeMissing(url string) (string, bool, error) {
	s.limiter.Take()
	status, resp, err := util.NewHTTPRequest("GET", url, "", nil)
	if err != nil {
		return "", false, err
	}
	if status == http.StatusNotFound {
		return "", true, nil
	}
	if status != http.StatusOK {
		return "", false, fmt.Errorf("GET %s: %s", url, resp)
	}
	return resp, false, nil
}
