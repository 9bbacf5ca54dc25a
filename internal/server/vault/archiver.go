package vault

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	appcommon "github.com/dmitrijs2005/memoire/internal/common"
	"github.com/dmitrijs2005/memoire/internal/filex"
	"github.com/dmitrijs2005/memoire/internal/logging"
	"github.com/dmitrijs2005/memoire/internal/server/store"
)

// Archiver assembles the files of a retrieved vault into a zip archive.
type Archiver struct {
	ledger   Ledger
	store    store.Store
	spoolDir string
	log      logging.Logger
}

func NewArchiver(l Ledger, st store.Store, spoolDir string, log logging.Logger) *Archiver {
	return &Archiver{ledger: l, store: st, spoolDir: spoolDir, log: log.With("module", "archiver")}
}

type bundleEntry struct {
	position int
	cid      string
	spool    *filex.Spool
}

// Bundle holds the fetched files of one retrieval, spooled to disk, ready to
// be written out as a zip. It must be closed.
type Bundle struct {
	entries  []bundleEntry
	skipped  []int
	modified time.Time
}

// Report lists 1-based positions of the decoded file set.
type Report struct {
	Included []int `json:"included"`
	Skipped  []int `json:"skipped"`
}

// OpenArchive decodes the file set of txHash and fetches every CID in
// decoded order. A CID that cannot be fetched is logged and skipped; only
// when nothing at all could be fetched does it fail, with
// ErrVaultFilesNotFound.
func (a *Archiver) OpenArchive(ctx context.Context, txHash string) (*Bundle, error) {
	h, err := ParseTxHash(txHash)
	if err != nil {
		return nil, err
	}

	log := a.log.With("tx_hash", h.Hex())

	cids, err := a.ledger.DecodeRetrievedFiles(ctx, h)
	if err != nil {
		return nil, err
	}
	if len(cids) == 0 {
		return nil, fmt.Errorf("%w: no retrieved files in %s", appcommon.ErrVaultFilesNotFound, h.Hex())
	}

	b := &Bundle{modified: time.Now()}
	var lastErr error

	for i, c := range cids {
		pos := i + 1

		if err := ctx.Err(); err != nil {
			b.Close()
			return nil, err
		}

		sp, err := a.fetch(ctx, c)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				b.Close()
				return nil, ctxErr
			}
			log.Warn(ctx, "skipping file", "cid", c, "position", pos, "error", err)
			b.skipped = append(b.skipped, pos)
			lastErr = err
			continue
		}
		b.entries = append(b.entries, bundleEntry{position: pos, cid: c, spool: sp})
	}

	if len(b.entries) == 0 {
		return nil, fmt.Errorf("%w: none of %d files could be fetched: %w", appcommon.ErrVaultFilesNotFound, len(cids), lastErr)
	}

	log.Info(ctx, "archive assembled", "included", len(b.entries), "skipped", len(b.skipped))
	return b, nil
}

// fetch spools one CID to disk. The network stream is closed on every path.
func (a *Archiver) fetch(ctx context.Context, cid string) (*filex.Spool, error) {
	rc, err := a.store.Fetch(ctx, cid)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return filex.NewSpool(a.spoolDir, rc)
}

// EntryName is the archive name of the file at a 1-based decoded position.
func EntryName(position int) string {
	return "file-" + strconv.Itoa(position)
}

// WriteZip streams the bundle as a zip archive. The central directory is
// written only after every entry.
func (b *Bundle) WriteZip(w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, e := range b.entries {
		fh := &zip.FileHeader{
			Name:     EntryName(e.position),
			Method:   zip.Deflate,
			Modified: b.modified,
			Comment:  e.cid,
		}
		ew, err := zw.CreateHeader(fh)
		if err != nil {
			return err
		}
		r, err := e.spool.Reader()
		if err != nil {
			return err
		}
		if _, err := io.Copy(ew, r); err != nil {
			return fmt.Errorf("write %s: %w", fh.Name, err)
		}
	}

	if len(b.skipped) > 0 {
		if err := zw.SetComment("skipped: " + JoinPositions(b.skipped)); err != nil {
			return err
		}
	}

	return zw.Close()
}

func (b *Bundle) Report() Report {
	r := Report{Included: make([]int, 0, len(b.entries)), Skipped: make([]int, 0, len(b.skipped))}
	for _, e := range b.entries {
		r.Included = append(r.Included, e.position)
	}
	r.Skipped = append(r.Skipped, b.skipped...)
	return r
}

// Close removes every spooled file.
func (b *Bundle) Close() error {
	var errs []error
	for _, e := range b.entries {
		if err := e.spool.Remove(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// JoinPositions renders positions as a comma separated list, e.g. "1,3".
func JoinPositions(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
