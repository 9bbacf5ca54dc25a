// Package store implements the content store: it pins byte buffers to a
// content-addressed backend and streams them back by content identifier.
//
// No retry logic lives here. Whether a failed upload aborts a multi-file
// operation is the caller's decision.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/server/config"
)

// Store is a pinning / content-addressing backend.
//
// Upload returns the CID once the backend acknowledged the buffer; it never
// truncates or re-encodes data. Fetch returns a lazily consumed stream that
// the caller must close.
//
// Errors match common.ErrStoreUnavailable, common.ErrStoreRejected or
// common.ErrContentNotFound.
type Store interface {
	Upload(ctx context.Context, data []byte) (string, error)
	Fetch(ctx context.Context, cid string) (io.ReadCloser, error)
}

// Pinger is implemented by backends that can report whether they are
// reachable. The health probe uses it.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	_ Pinger = (*Memory)(nil)
	_ Pinger = (*Pinata)(nil)
	_ Pinger = (*Kubo)(nil)
	_ Pinger = (*S3)(nil)
)

// Backend names accepted by New.
const (
	BackendPinata = "pinata"
	BackendKubo   = "kubo"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// New builds the backend selected by cfg.StoreBackend.
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	httpClient := &http.Client{Timeout: cfg.StoreTimeout}

	var (
		s   Store
		err error
	)
	switch cfg.StoreBackend {
	case BackendPinata:
		s, err = NewPinata(PinataOptions{
			APIURL:     cfg.PinataAPIURL,
			GatewayURL: cfg.PinataGatewayURL,
			JWT:        cfg.PinataJWT,
			APIKey:     cfg.PinataAPIKey,
			APISecret:  cfg.PinataAPISecret,
			Client:     httpClient,
		})
	case BackendKubo:
		s, err = NewKubo(cfg.KuboAPIURL, httpClient)
	case BackendS3:
		s, err = NewS3(ctx, cfg)
	case BackendMemory:
		s = NewMemory()
	default:
		err = fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// isTransport reports whether err means the backend could not be reached or
// did not answer in time.
func isTransport(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// unavailable wraps err as common.ErrStoreUnavailable.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}

func rejected(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreRejected, err)
}

func notFound(cid string) error {
	return fmt.Errorf("%w: %s", common.ErrContentNotFound, cid)
}
