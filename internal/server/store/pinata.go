package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/memoire/internal/netx"
)

// PinataOptions configures the hosted Pinata pinning service. Either JWT or
// the APIKey/APISecret pair is required.
type PinataOptions struct {
	APIURL     string
	GatewayURL string
	JWT        string
	APIKey     string
	APISecret  string
	Client     *http.Client
}

type Pinata struct {
	opts PinataOptions
}

type pinFileResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

var timeNow = time.Now

// NewPinata validates credentials. An expired JWT is refused here so that
// the service does not start against a backend that will reject every pin.
func NewPinata(opts PinataOptions) (*Pinata, error) {
	if opts.JWT == "" && (opts.APIKey == "" || opts.APISecret == "") {
		return nil, errors.New("pinata: jwt or api key and secret required")
	}
	if opts.JWT != "" {
		if err := checkJWT(opts.JWT); err != nil {
			return nil, err
		}
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	opts.APIURL = strings.TrimRight(opts.APIURL, "/")
	opts.GatewayURL = strings.TrimRight(opts.GatewayURL, "/")
	return &Pinata{opts: opts}, nil
}

func checkJWT(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return fmt.Errorf("pinata: malformed jwt: %w", err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return fmt.Errorf("pinata: malformed jwt: %w", err)
	}
	if exp != nil && exp.Before(timeNow()) {
		return fmt.Errorf("pinata: jwt expired at %s", exp.Format(time.RFC3339))
	}
	return nil
}

func (p *Pinata) authorize(req *http.Request) {
	if p.opts.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+p.opts.JWT)
		return
	}
	req.Header.Set("pinata_api_key", p.opts.APIKey)
	req.Header.Set("pinata_secret_api_key", p.opts.APISecret)
}

func (p *Pinata) Upload(ctx context.Context, data []byte) (string, error) {
	body, contentType, err := netx.MultipartBody(
		[]netx.FormFile{{Field: "file", FileName: "vault-file", Data: data}}, nil)
	if err != nil {
		return "", rejected("pinata upload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.APIURL+"/pinning/pinFileToIPFS", body)
	if err != nil {
		return "", rejected("pinata upload", err)
	}
	req.Header.Set("Content-Type", contentType)
	p.authorize(req)

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return "", unavailable("pinata upload", err)
	}
	defer resp.Body.Close()

	if err := netx.CheckResponse(resp); err != nil {
		return "", statusError("pinata upload", err)
	}

	var out pinFileResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", rejected("pinata upload", err)
	}
	if out.IpfsHash == "" {
		return "", rejected("pinata upload", errors.New("empty IpfsHash in response"))
	}
	return out.IpfsHash, nil
}

func (p *Pinata) Fetch(ctx context.Context, cid string) (io.ReadCloser, error) {
	if !ValidCID(cid) {
		return nil, notFound(cid)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.GatewayURL+"/ipfs/"+cid, nil)
	if err != nil {
		return nil, rejected("pinata fetch", err)
	}

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return nil, unavailable("pinata fetch", err)
	}

	if err := netx.CheckResponse(resp); err != nil {
		resp.Body.Close()
		var se *netx.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			return nil, notFound(cid)
		}
		return nil, statusError("pinata fetch", err)
	}
	return resp.Body, nil
}

// Ping checks that the API is reachable and accepts the credentials.
func (p *Pinata) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.opts.APIURL+"/data/testAuthentication", nil)
	if err != nil {
		return err
	}
	p.authorize(req)

	resp, err := p.opts.Client.Do(req)
	if err != nil {
		return unavailable("pinata ping", err)
	}
	defer resp.Body.Close()

	if err := netx.CheckResponse(resp); err != nil {
		return statusError("pinata ping", err)
	}
	return nil
}

// statusError maps a non-2xx answer: 5xx and 429 mean the backend cannot
// serve right now, other codes are an explicit refusal.
func statusError(op string, err error) error {
	var se *netx.StatusError
	if errors.As(err, &se) && (se.StatusCode >= 500 || se.StatusCode == http.StatusTooManyRequests) {
		return unavailable(op, err)
	}
	return rejected(op, err)
}
