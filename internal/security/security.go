// Package security implements the fingerprinting of executables and the
// privilege checks of the running program.
package security

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/desertwitch/procwatch/internal/schema"
	"github.com/zeebo/blake3"
)

const (
	// AlgorithmSHA256 selects SHA-256 digests (the default).
	AlgorithmSHA256 = "sha256"

	// AlgorithmBLAKE3 selects 256-bit BLAKE3 digests.
	AlgorithmBLAKE3 = "blake3"

	// hashBufferSize is the size of the read buffer used while hashing.
	hashBufferSize = 8192
)

type osProvider interface {
	Open(name string) (*os.File, error)
}

type unixProvider interface {
	Geteuid() int
}

// Handler is the principal implementation of the security functions.
type Handler struct {
	osHandler   osProvider
	unixHandler unixProvider
	algorithm   string
}

// NewHandler returns a pointer to a new security [Handler]. An empty algorithm
// defaults to [AlgorithmSHA256].
func NewHandler(osHandler osProvider, unixHandler unixProvider, algorithm string) (*Handler, error) {
	algorithm = strings.ToLower(strings.TrimSpace(algorithm))
	if algorithm == "" {
		algorithm = AlgorithmSHA256
	}

	if algorithm != AlgorithmSHA256 && algorithm != AlgorithmBLAKE3 {
		return nil, fmt.Errorf("(security-new) %w: %q", ErrUnsupportedAlgorithm, algorithm)
	}

	return &Handler{
		osHandler:   osHandler,
		unixHandler: unixHandler,
		algorithm:   algorithm,
	}, nil
}

// Algorithm returns the name of the configured hash algorithm.
func (h *Handler) Algorithm() string {
	return h.algorithm
}

// IsElevated returns whether the program runs with an effective user ID of 0.
func (h *Handler) IsElevated() bool {
	return h.unixHandler.Geteuid() == 0
}

// HashFile returns the lower-case hexadecimal digest (64 characters) of the
// file at path.
func (h *Handler) HashFile(ctx context.Context, path string) (string, error) {
	digest, _, err := h.hashFile(ctx, path)

	return digest, err
}

// HashFileOrEmpty is a variant of [Handler.HashFile] that does not distinguish
// between failure and success other than by returning an empty string.
func (h *Handler) HashFileOrEmpty(ctx context.Context, path string) string {
	digest, _, err := h.hashFile(ctx, path)
	if err != nil {
		slog.Debug("Could not hash file.",
			"path", path,
			"err", err,
		)

		return ""
	}

	return digest
}

// Fingerprint hashes the executable of the given [schema.ProcessDescriptor].
// Any error is recorded within the returned [schema.Fingerprint].
func (h *Handler) Fingerprint(ctx context.Context, proc schema.ProcessDescriptor) schema.Fingerprint {
	fp := schema.Fingerprint{
		Process:   proc,
		Algorithm: h.algorithm,
	}

	if !proc.HasPath() {
		fp.Err = fmt.Errorf("(security-fingerprint) %w: pid %d", ErrNoExecutablePath, proc.PID())

		return fp
	}

	fp.Digest, fp.Size, fp.Err = h.hashFile(ctx, proc.Path())

	return fp
}

func (h *Handler) newHasher() hash.Hash {
	if h.algorithm == AlgorithmBLAKE3 {
		return blake3.New()
	}

	return sha256.New()
}

func (h *Handler) hashFile(ctx context.Context, path string) (string, uint64, error) {
	f, err := h.osHandler.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("(security-hash) failed to open: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", 0, fmt.Errorf("(security-hash) failed to stat: %w", err)
	}

	if !info.Mode().IsRegular() {
		return "", 0, fmt.Errorf("(security-hash) %w: %s", ErrNotRegularFile, path)
	}

	hasher := h.newHasher()
	buf := make([]byte, hashBufferSize)

	ctxReader := &contextReader{
		ctx:    ctx,
		reader: f,
	}

	n, err := io.CopyBuffer(hasher, ctxReader, buf)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", 0, fmt.Errorf("(security-hash) canceled: %w", err)
		}

		return "", 0, fmt.Errorf("(security-hash) failed to read: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), uint64(n), nil //nolint:gosec
}

//nolint:containedctx
type contextReader struct {
	ctx    context.Context
	reader io.Reader
}

func (cr *contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}

	return cr.reader.Read(p)
}
