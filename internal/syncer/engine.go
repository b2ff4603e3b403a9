// Package syncer orchestrates the two sync directions between the local
// clipboard and the remote slot directory: Push uploads the current
// payload as a new timestamped snapshot, Pull restores the newest
// snapshot. All failures cross this boundary as SyncError.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"time"

	"github.com/alexjbarnes/clip-sync/internal/alist"
	"github.com/alexjbarnes/clip-sync/internal/clipboard"
	"github.com/alexjbarnes/clip-sync/internal/retry"
	"github.com/alexjbarnes/clip-sync/internal/sniff"
	"github.com/google/uuid"
)

// defaultTimeFormat names snapshots to the second.
const defaultTimeFormat = "20060102_150405"

// Store is the remote-store surface the engine depends on.
type Store interface {
	List(ctx context.Context, token, dirPath string) ([]alist.Entry, error)
	Mkdir(ctx context.Context, token, dirPath string) error
	Get(ctx context.Context, token, filePath string) (string, error)
	Put(ctx context.Context, token, filePath string, data []byte) error
	Download(ctx context.Context, rawURL string) ([]byte, error)
}

// TokenSource yields an authentication token on demand.
type TokenSource interface {
	EnsureToken(ctx context.Context) (string, error)
}

// Config wires an Engine.
type Config struct {
	Store Store
	Auth  TokenSource

	// Dir is the remote directory treated as the clipboard slot.
	Dir string

	// TimeFormat is the Go layout used in snapshot filenames.
	TimeFormat string

	// Writer restores pulled payloads into the system clipboard.
	// May be nil, in which case Pull only returns the payload.
	Writer clipboard.Writer

	// Retry overrides the default policy. Zero value means default.
	Retry retry.Policy

	Logger *slog.Logger
}

// Engine performs push and pull against one slot directory. Operations
// are strictly sequential: nothing here runs concurrently.
type Engine struct {
	store      Store
	auth       TokenSource
	dir        string
	timeFormat string
	writer     clipboard.Writer
	retry      retry.Policy
	logger     *slog.Logger

	// now is swappable for tests.
	now func() time.Time
}

// New builds an Engine from cfg.
func New(cfg Config) *Engine {
	if cfg.TimeFormat == "" {
		cfg.TimeFormat = defaultTimeFormat
	}

	if cfg.Retry == (retry.Policy{}) {
		cfg.Retry = retry.Default()
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Engine{
		store:      cfg.Store,
		auth:       cfg.Auth,
		dir:        cfg.Dir,
		timeFormat: cfg.TimeFormat,
		writer:     cfg.Writer,
		retry:      cfg.Retry,
		logger:     cfg.Logger,
		now:        time.Now,
	}
}

// snapshotName derives the remote filename for a payload.
func (e *Engine) snapshotName(res sniff.Result) string {
	stamp := e.now().Format(e.timeFormat)

	if res.Kind == sniff.Text {
		return "clipboard_" + stamp + ".txt"
	}

	ext := res.Ext
	if ext == "" {
		ext = "png"
	}

	return "clipboard_image_" + stamp + "." + ext
}

// Push uploads the payload as a new snapshot and returns its remote
// path. The payload's staging file, if any, is removed on every exit
// path, success or failure.
func (e *Engine) Push(ctx context.Context, p clipboard.Payload) (string, error) {
	defer discardStaging(p.TempPath)

	logger := e.logger.With(
		slog.String("op", "push"),
		slog.String("op_id", opID()),
	)

	// Classification is repeated here even for pre-classified payloads:
	// it is deterministic, and the upload decision must come from the
	// same sniffer the pull side uses.
	res := sniff.Classify(p.Data, p.Ext)

	if len(p.Data) == 0 {
		return "", fail("push", fmt.Errorf("%w: refusing to upload zero bytes", ErrEmptyContent))
	}

	token, err := e.auth.EnsureToken(ctx)
	if err != nil {
		return "", syncAuthErr("push", err)
	}

	if err := e.store.Mkdir(ctx, token, e.dir); err != nil {
		return "", fail("push", err)
	}

	name := e.snapshotName(res)
	remotePath := path.Join(e.dir, name)

	logger.Info("uploading clipboard snapshot",
		slog.String("path", remotePath),
		slog.String("kind", res.Kind.String()),
		slog.Int("bytes", len(p.Data)),
	)

	err = e.retry.Do(ctx, logger, "upload", func() error {
		putErr := e.store.Put(ctx, token, remotePath, p.Data)
		if alist.IsAuth(putErr) {
			// A rejected token will not heal between attempts; burning
			// the rest of the budget on it helps nobody.
			return retry.Permanent(putErr)
		}

		return putErr
	})
	if err != nil {
		return "", fail("push", err)
	}

	logger.Info("push complete", slog.String("path", remotePath))

	return remotePath, nil
}

// Pull restores the newest snapshot from the slot into the clipboard
// and returns the payload. The downloaded bytes are re-classified by
// content; the server's name and type are never trusted for restore.
func (e *Engine) Pull(ctx context.Context) (clipboard.Payload, error) {
	logger := e.logger.With(
		slog.String("op", "pull"),
		slog.String("op_id", opID()),
	)

	token, err := e.auth.EnsureToken(ctx)
	if err != nil {
		return clipboard.Payload{}, syncAuthErr("pull", err)
	}

	var entries []alist.Entry

	err = e.retry.Do(ctx, logger, "list", func() error {
		var listErr error

		entries, listErr = e.store.List(ctx, token, e.dir)
		if alist.IsAuth(listErr) || isNotFound(listErr) {
			return retry.Permanent(listErr)
		}

		return listErr
	})
	if err != nil {
		return clipboard.Payload{}, fail("pull", err)
	}

	latest, err := selectLatest(entries)
	if err != nil {
		return clipboard.Payload{}, fail("pull", err)
	}

	remotePath := path.Join(e.dir, latest.Name)

	logger.Info("downloading clipboard snapshot",
		slog.String("path", remotePath),
		slog.String("modified", latest.Modified),
	)

	var data []byte

	err = e.retry.Do(ctx, logger, "download", func() error {
		// The raw URL is re-resolved per attempt; storage backends hand
		// out short-lived links.
		rawURL, getErr := e.store.Get(ctx, token, remotePath)
		if getErr != nil {
			if alist.IsAuth(getErr) || isNotFound(getErr) {
				return retry.Permanent(getErr)
			}

			return getErr
		}

		var dlErr error

		data, dlErr = e.store.Download(ctx, rawURL)

		return dlErr
	})
	if err != nil {
		return clipboard.Payload{}, fail("pull", err)
	}

	if len(data) == 0 {
		return clipboard.Payload{}, fail("pull", fmt.Errorf("%w: downloaded zero bytes from %s", ErrEmptyContent, remotePath))
	}

	res := sniff.Classify(data, latest.Name)

	payload := clipboard.Payload{
		Kind: res.Kind,
		Data: data,
		Ext:  res.Ext,
	}

	stage, err := e.stagePayload(data, latest.Name, res, logger)
	if err != nil {
		return clipboard.Payload{}, fail("pull", err)
	}
	defer discardStaging(stage)

	// Writers that restore through a file (image paste scripts) read the
	// staging file instead of writing their own copy.
	payload.TempPath = stage

	if e.writer != nil {
		if err := e.writer.Write(ctx, payload); err != nil {
			return clipboard.Payload{}, syncErrKind("pull", KindTransport, fmt.Errorf("restoring clipboard: %w", err))
		}
	}

	// The staging file is gone once Pull returns.
	payload.TempPath = ""

	logger.Info("pull complete",
		slog.String("path", remotePath),
		slog.String("kind", res.Kind.String()),
		slog.Int("bytes", len(data)),
	)

	return payload, nil
}

// stagePayload writes the downloaded bytes to a scoped temporary file.
// When the content sniff disagrees with the remote name's extension, the
// staging file carries the sniffed extension: a snapshot is never left
// on disk labelled with a wrong type.
func (e *Engine) stagePayload(data []byte, remoteName string, res sniff.Result, logger *slog.Logger) (string, error) {
	f, err := os.CreateTemp("", "clip-sync-*."+res.Ext)
	if err != nil {
		return "", fmt.Errorf("creating staging file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())

		return "", fmt.Errorf("writing staging file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())

		return "", fmt.Errorf("closing staging file: %w", err)
	}

	if nameExt := strings.TrimPrefix(path.Ext(remoteName), "."); nameExt != "" && nameExt != res.Ext {
		logger.Debug("content sniff overrides remote extension",
			slog.String("remote_ext", nameExt),
			slog.String("sniffed_ext", res.Ext),
		)
	}

	return f.Name(), nil
}

// discardStaging removes a staging file, tolerating absence.
func discardStaging(p string) {
	if p == "" {
		return
	}

	_ = os.Remove(p)
}

// isNotFound reports a missing remote object, tolerating nil.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}

	return classify(err) == KindNotFound
}

// syncAuthErr folds a token-source failure into an auth-kind SyncError.
// Login failures are terminal whatever their transport looked like.
func syncAuthErr(op string, err error) *SyncError {
	return &SyncError{Op: op, Kind: KindAuth, Err: err}
}

// syncErrKind builds a SyncError with an explicit kind.
func syncErrKind(op string, kind Kind, err error) *SyncError {
	return &SyncError{Op: op, Kind: kind, Err: err}
}

// opID returns a short correlation ID for one push or pull.
func opID() string {
	return uuid.NewString()[:8]
}
