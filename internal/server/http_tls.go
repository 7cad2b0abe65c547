package server

import (
	"crypto/tls"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"whitecarrot/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// CertReloader serves the current certificate pair and reloads it when the
// files change on disk
type CertReloader struct {
	certFile string
	keyFile  string
	logger   *errors.Logger

	mu   sync.RWMutex
	cert *tls.Certificate

	watcher       *fsnotify.Watcher
	debounceDelay time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCertReloader loads the pair once; Watch starts following changes
func NewCertReloader(certFile, keyFile string, logger *errors.Logger) (*CertReloader, error) {
	cr := &CertReloader{
		certFile:      certFile,
		keyFile:       keyFile,
		logger:        logger,
		debounceDelay: time.Second,
		stopChan:      make(chan struct{}),
	}
	if err := cr.Reload(); err != nil {
		return nil, err
	}
	return cr, nil
}

// Reload reads the pair again. A broken pair keeps the previous one.
func (cr *CertReloader) Reload() error {
	cert, err := tls.LoadX509KeyPair(cr.certFile, cr.keyFile)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load TLS certificate", err).
			WithContext("cert_file", cr.certFile)
	}
	cr.mu.Lock()
	cr.cert = &cert
	cr.mu.Unlock()
	return nil
}

// GetCertificate is the tls.Config hook
func (cr *CertReloader) GetCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	cr.mu.RLock()
	defer cr.mu.RUnlock()
	return cr.cert, nil
}

// TLSConfig returns a server TLS configuration backed by the reloader
func (cr *CertReloader) TLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion:     tls.VersionTLS12,
		GetCertificate: cr.GetCertificate,
	}
}

// Watch follows the directories of both files. Editors and secret mounts
// replace files rather than writing them, so the directory is watched.
func (cr *CertReloader) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	dirs := map[string]bool{filepath.Dir(cr.certFile): true, filepath.Dir(cr.keyFile): true}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	cr.watcher = watcher
	go cr.watchLoop()

	cr.logger.Info("Certificate watcher started", "cert_file", cr.certFile, "key_file", cr.keyFile)
	return nil
}

func (cr *CertReloader) watchLoop() {
	targets := map[string]bool{
		filepath.Clean(cr.certFile): true,
		filepath.Clean(cr.keyFile):  true,
	}
	var debounce <-chan time.Time

	for {
		select {
		case event, ok := <-cr.watcher.Events:
			if !ok {
				return
			}
			if targets[filepath.Clean(event.Name)] && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				// cert and key usually change together
				debounce = time.After(cr.debounceDelay)
			}
		case <-debounce:
			debounce = nil
			if err := cr.Reload(); err != nil {
				cr.logger.LogError(err, "Certificate reload failed, keeping previous certificate")
				continue
			}
			cr.logger.Info("Certificate reloaded", "cert_file", cr.certFile)
		case err, ok := <-cr.watcher.Errors:
			if !ok {
				return
			}
			cr.logger.LogError(err, "Certificate watcher error")
		case <-cr.stopChan:
			return
		}
	}
}

// Stop ends the watch loop
func (cr *CertReloader) Stop() error {
	var err error
	cr.stopOnce.Do(func() {
		close(cr.stopChan)
		if cr.watcher != nil {
			err = cr.watcher.Close()
		}
	})
	return err
}
