// Package creds supplies short-lived bearer tokens for the storage API
// from a service-account key file. Tokens are cached and refreshed before
// expiry by the underlying oauth2 token source; the key file is watched so
// a rotated credential takes effect without a restart.
package creds

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
)

// driveScope grants full read/write access to Drive files and folders.
const driveScope = "https://www.googleapis.com/auth/drive"

// keyFile mirrors the service-account JSON key material.
type keyFile struct {
	ClientEmail string `json:"client_email"`
	PrivateKey  string `json:"private_key"`
	TokenURI    string `json:"token_uri"`
}

// Provider loads a service-account key and exposes bearer tokens through
// Token(). It satisfies drive.TokenSource.
type Provider struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	source oauth2.TokenSource
}

// NewProvider reads and validates the key file at path. The key is parsed
// eagerly so a missing or malformed credential fails at startup rather
// than on the first upload.
func NewProvider(path string, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Provider{
		path:   path,
		logger: logger,
	}

	if err := p.reload(); err != nil {
		return nil, err
	}

	return p, nil
}

// Token returns a valid bearer token, fetching a fresh one from the token
// endpoint only when the cached token has expired.
func (p *Provider) Token() (string, error) {
	p.mu.Lock()
	source := p.source
	p.mu.Unlock()

	tok, err := source.Token()
	if err != nil {
		return "", fmt.Errorf("creds: fetching token: %w", err)
	}

	return tok.AccessToken, nil
}

// reload re-parses the key file and swaps in a fresh token source.
func (p *Provider) reload() error {
	raw, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("creds: reading key file %s: %w", p.path, err)
	}

	var kf keyFile
	if err := json.Unmarshal(raw, &kf); err != nil {
		return fmt.Errorf("creds: parsing key file %s: %w", p.path, err)
	}

	if kf.ClientEmail == "" || kf.PrivateKey == "" {
		return fmt.Errorf("creds: key file %s missing client_email or private_key", p.path)
	}

	cfg := &jwt.Config{
		Email:      kf.ClientEmail,
		PrivateKey: []byte(kf.PrivateKey),
		TokenURL:   kf.TokenURI,
		Scopes:     []string{driveScope},
	}

	p.mu.Lock()
	p.source = cfg.TokenSource(context.Background())
	p.mu.Unlock()

	p.logger.Info("service credential loaded",
		slog.String("path", p.path),
		slog.String("client_email", kf.ClientEmail),
	)

	return nil
}

// Watch blocks until ctx is canceled, reloading the key file whenever it
// changes on disk. The parent directory is watched rather than the file
// itself because rotation tooling typically replaces the file by rename.
// A reload failure keeps the previous credential and logs the problem.
func (p *Provider) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creds: creating watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("creds: watching %s: %w", dir, err)
	}

	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != target {
				continue
			}

			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			p.logger.Info("service credential file changed, reloading",
				slog.String("op", event.Op.String()),
			)

			if reloadErr := p.reload(); reloadErr != nil {
				p.logger.Error("credential reload failed, keeping previous key",
					slog.String("error", reloadErr.Error()),
				)
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			p.logger.Error("credential watcher error",
				slog.String("error", watchErr.Error()),
			)
		}
	}
}
