package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/netx"
)

// TxRequest is the unsigned transaction descriptor returned by the server.
// Integers arrive as decimal strings and are kept that way.
type TxRequest struct {
	Address              string `json:"address"`
	FunctionName         string `json:"functionName"`
	Args                 []any  `json:"args"`
	Data                 string `json:"data"`
	Gas                  string `json:"gas"`
	MaxFeePerGas         string `json:"maxFeePerGas"`
	MaxPriorityFeePerGas string `json:"maxPriorityFeePerGas"`
	Value                string `json:"value"`
	ChainID              string `json:"chainId"`
}

type ManifestEntry struct {
	OriginalName string `json:"originalName"`
	CID          string `json:"cid"`
}

type CreateVaultResponse struct {
	Transaction TxRequest       `json:"transaction"`
	Files       []ManifestEntry `json:"files"`
	UnlockTime  int64           `json:"unlockTime"`
}

type VaultStatus struct {
	IsOpen     bool   `json:"isOpen"`
	UnlockTime string `json:"unlockTime"`
}

type Vault struct {
	VaultID string `json:"vaultId"`
	Name    string `json:"name"`
}

// File is one file to put into a new vault.
type File struct {
	Name string
	Data []byte
}

// DownloadReport lists which decoded positions the server put into the
// archive and which it had to skip.
type DownloadReport struct {
	FileName string
	Included string
	Skipped  string
	Bytes    int64
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the server at baseURL. A nil httpClient means
// http.DefaultClient.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) do(ctx context.Context, op string, req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req.WithContext(ctx))
	if err != nil {
		return nil, unavailable(op, err)
	}
	if err := decodeError(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Ping checks that the server answers on its root route.
func (c *Client) Ping(ctx context.Context) error {
	var body map[string]string
	if err := c.getJSON(ctx, "ping", "/", &body); err != nil {
		return err
	}
	if body["status"] != "ok" {
		return fmt.Errorf("ping: unexpected status %q", body["status"])
	}
	return nil
}

// CreateVault uploads files in order and returns the unsigned create
// transaction together with the file manifest.
func (c *Client) CreateVault(ctx context.Context, name, unlockTime string, files []File) (*CreateVaultResponse, error) {
	parts := make([]netx.FormFile, len(files))
	for i, f := range files {
		parts[i] = netx.FormFile{Field: "files", FileName: f.Name, Data: f.Data}
	}
	body, ct, err := netx.MultipartBody(parts, []netx.FormField{
		{Name: "name", Value: name},
		{Name: "lockTime", Value: unlockTime},
	})
	if err != nil {
		return nil, fmt.Errorf("build upload body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", ct)

	resp, err := c.do(ctx, "create vault", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out CreateVaultResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("create vault: decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) Status(ctx context.Context, vaultID string) (*VaultStatus, error) {
	var out VaultStatus
	if err := c.getJSON(ctx, "vault status", "/vault/"+url.PathEscape(vaultID)+"/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RetrieveTx(ctx context.Context, vaultID string) (*TxRequest, error) {
	var out TxRequest
	if err := c.getJSON(ctx, "retrieve tx", "/vault/"+url.PathEscape(vaultID)+"/tx", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DestroyTx(ctx context.Context, vaultID string) (*TxRequest, error) {
	var out TxRequest
	if err := c.getJSON(ctx, "destroy tx", "/vault/"+url.PathEscape(vaultID)+"/destroy-tx", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CIDs(ctx context.Context, txHash string) ([]string, error) {
	out := []string{}
	if err := c.getJSON(ctx, "list cids", "/vault/tx/"+url.PathEscape(txHash)+"/cids", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Vaults(ctx context.Context, owner string) ([]Vault, error) {
	out := []Vault{}
	if err := c.getJSON(ctx, "list vaults", "/owners/"+url.PathEscape(owner)+"/vaults", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Download streams the archive of txHash into w.
func (c *Client) Download(ctx context.Context, txHash string, w io.Writer) (*DownloadReport, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/vault/tx/"+url.PathEscape(txHash)+"/files", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.do(ctx, "download", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rep := &DownloadReport{
		FileName: attachmentName(resp.Header.Get("Content-Disposition")),
		Included: resp.Header.Get(appcommon.VaultIncludedHeader),
		Skipped:  resp.Header.Get(appcommon.VaultSkippedHeader),
	}
	n, err := io.Copy(w, resp.Body)
	rep.Bytes = n
	if err != nil {
		return rep, fmt.Errorf("download: %w", err)
	}
	return rep, nil
}

func attachmentName(cd string) string {
	_, params, err := mime.ParseMediaType(cd)
	if err != nil {
		return ""
	}
	return params["filename"]
}
