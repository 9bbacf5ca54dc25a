package store

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ipfs/boxo/files"
	"github.com/ipfs/boxo/path"
	"github.com/ipfs/go-cid"
	"github.com/ipfs/kubo/client/rpc"
	"github.com/ipfs/kubo/core/coreiface/options"
)

const kuboPinName = "memoire"

// Kubo talks to a self-hosted IPFS node over its RPC API.
type Kubo struct {
	api *rpc.HttpApi
}

func NewKubo(apiURL string, client *http.Client) (*Kubo, error) {
	api, err := rpc.NewURLApiWithClient(apiURL, client)
	if err != nil {
		return nil, fmt.Errorf("kubo: %w", err)
	}
	return &Kubo{api: api}, nil
}

func (k *Kubo) Upload(ctx context.Context, data []byte) (string, error) {
	p, err := k.api.Unixfs().Add(ctx, files.NewBytesFile(data))
	if err != nil {
		return "", kuboError("kubo upload", err)
	}
	if err := k.api.Pin().Add(ctx, p, options.Pin.Name(kuboPinName)); err != nil {
		return "", kuboError("kubo pin", err)
	}
	return p.RootCid().String(), nil
}

func (k *Kubo) Fetch(ctx context.Context, c string) (io.ReadCloser, error) {
	parsed, err := cid.Decode(c)
	if err != nil {
		return nil, notFound(c)
	}

	node, err := k.api.Unixfs().Get(ctx, path.FromCid(parsed))
	if err != nil {
		if isTransport(err) {
			return nil, unavailable("kubo fetch", err)
		}
		return nil, fmt.Errorf("%w: %w", notFound(c), err)
	}

	file, ok := node.(files.File)
	if !ok {
		node.Close()
		return nil, rejected("kubo fetch", fmt.Errorf("unexpected node type %T", node))
	}
	return file, nil
}

// Ping asks the node for its own identity key.
func (k *Kubo) Ping(ctx context.Context) error {
	if _, err := k.api.Key().Self(ctx); err != nil {
		return kuboError("kubo ping", err)
	}
	return nil
}

func kuboError(op string, err error) error {
	if isTransport(err) {
		return unavailable(op, err)
	}
	return rejected(op, err)
}
