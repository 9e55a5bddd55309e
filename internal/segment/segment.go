// Package segment is an in-memory SegmentWriter standing in for a block
// device: it accumulates drained items into a byte buffer, checksums the
// result with blake2b, and optionally encrypts that checksum through a
// Vault transit key before "writing" (storing) it. The item data itself
// is kept unencrypted.
package segment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"sync"

	vaultapi "github.com/hashicorp/vault/api"
	"golang.org/x/crypto/blake2b"

	"github.com/wovenfs/txncore/internal/txn"
	"github.com/wovenfs/txncore/pkg/errors"
)

// Segment is one level-0 output unit: a sequence of (key, value) items
// plus a checksum computed over their serialized form.
type Segment struct {
	segno    uint64
	buf      bytes.Buffer
	checksum [blake2b.Size256]byte
	wrapped  []byte // Vault transit ciphertext of checksum; nil when wrapping is off
	sealed   bool
}

// AppendItem implements itemstore.WritableSegment.
func (s *Segment) AppendItem(key string, val []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint32(lenBuf[0:4], uint32(len(key)))
	binary.BigEndian.PutUint32(lenBuf[4:8], uint32(len(val)))
	s.buf.Write(lenBuf[:])
	s.buf.WriteString(key)
	s.buf.Write(val)
}

// TotalBytes implements txn.Segment.
func (s *Segment) TotalBytes() uint64 {
	return uint64(s.buf.Len())
}

// Segno is the segment number allocated by the control plane.
func (s *Segment) Segno() uint64 { return s.segno }

// Checksum returns the blake2b-256 digest computed at Submit time. It is
// the zero value until the segment has been submitted.
func (s *Segment) Checksum() [blake2b.Size256]byte { return s.checksum }

// Writer is the in-memory SegmentWriter.
type Writer struct {
	mu       sync.Mutex
	store    map[uint64]*Segment
	vault    *vaultapi.Client
	transitKey string
}

// Config configures optional Vault-backed key wrapping.
type Config struct {
	VaultAddr  string
	TransitKey string
}

// New returns a Writer. If cfg.VaultAddr is non-empty, each segment's
// checksum is encrypted through the named transit key before the segment
// is considered written;
// a Vault client error at construction time is non-fatal, it just leaves
// wrapping disabled.
func New(cfg Config) *Writer {
	w := &Writer{
		store:      make(map[uint64]*Segment),
		transitKey: cfg.TransitKey,
	}

	if cfg.VaultAddr == "" {
		return w
	}

	vcfg := vaultapi.DefaultConfig()
	vcfg.Address = cfg.VaultAddr
	client, err := vaultapi.NewClient(vcfg)
	if err == nil {
		w.vault = client
	}
	return w
}

// New implements txn.SegmentWriter.New.
func (w *Writer) New(ctx context.Context, segno uint64) (txn.Segment, error) {
	seg := &Segment{segno: segno}
	w.mu.Lock()
	w.store[segno] = seg
	w.mu.Unlock()
	return seg, nil
}

// Submit implements txn.SegmentWriter.Submit: it finalizes the segment's
// checksum, optionally encrypts that checksum through Vault transit, and signals
// completion synchronously (there is no real device I/O to await).
func (w *Writer) Submit(ctx context.Context, s txn.Segment, completion *txn.Completion) error {
	seg, ok := s.(*Segment)
	if !ok {
		err := errors.New(errors.ErrInvalidArgument, "submit called with foreign segment type").
			WithSource(errors.SourceSegmentWriter)
		completion.Signal(err)
		return err
	}

	seg.checksum = blake2b.Sum256(seg.buf.Bytes())

	if w.vault != nil {
		wrapped, err := w.wrapKey(ctx, seg.checksum[:])
		if err != nil {
			wrappedErr := errors.New(errors.ErrIO, "vault transit wrap failed").
				WithSource(errors.SourceSegmentWriter).
				WithCause(err)
			completion.Signal(wrappedErr)
			return wrappedErr
		}
		seg.wrapped = wrapped
	}

	seg.sealed = true
	completion.Signal(nil)
	return nil
}

// Wait implements txn.SegmentWriter.Wait. Submit already signals the
// completion synchronously, so Wait only observes ctx cancellation racing
// against that signal.
func (w *Writer) Wait(ctx context.Context, completion *txn.Completion) error {
	return completion.Wait(ctx)
}

func (w *Writer) wrapKey(ctx context.Context, checksum []byte) ([]byte, error) {
	secret, err := w.vault.Logical().WriteWithContext(ctx, "transit/encrypt/"+w.transitKey, map[string]any{
		"plaintext": base64.StdEncoding.EncodeToString(checksum),
	})
	if err != nil {
		return nil, err
	}
	if secret == nil {
		return nil, errors.New(errors.ErrIO, "vault returned no ciphertext").
			WithSource(errors.SourceSegmentWriter)
	}
	ciphertext, _ := secret.Data["ciphertext"].(string)
	return []byte(ciphertext), nil
}
