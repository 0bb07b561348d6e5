// Package updater replaces the running taxiid binary with the latest
// GitHub release.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/opentaxii-core/internal/logging"
	"github.com/smazurov/opentaxii-core/internal/version"
)

// ErrNoRelease is returned when the repository has no matching release.
var ErrNoRelease = errors.New("no release found")

// Options contains configuration for the updater.
type Options struct {
	Repository string // GitHub repo slug, e.g. "smazurov/opentaxii-core"
	Prerelease bool
}

// UpdateInfo describes the latest release relative to the running binary.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version"`
	LatestVersion   string    `json:"latest_version"`
	ReleaseURL      string    `json:"release_url"`
	PublishedAt     time.Time `json:"published_at"`
	AssetSize       int       `json:"asset_size"`
	UpdateAvailable bool      `json:"update_available"`
}

// Updater checks for and applies releases.
type Updater struct {
	repo    selfupdate.Repository
	updater *selfupdate.Updater
	logger  *slog.Logger
}

// New creates an Updater for opts.Repository.
func New(opts Options) (*Updater, error) {
	if opts.Repository == "" {
		return nil, errors.New("update repository not configured")
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	u, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}

	return &Updater{
		repo:    selfupdate.ParseSlug(opts.Repository),
		updater: u,
		logger:  logging.GetLogger("updater"),
	}, nil
}

// Check looks up the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, error) {
	info, _, err := u.detect(ctx)
	return info, err
}

// Apply downloads the latest release over the running executable if it is
// newer. The process must be restarted to run the new version.
func (u *Updater) Apply(ctx context.Context) (*UpdateInfo, error) {
	info, release, err := u.detect(ctx)
	if err != nil || !info.UpdateAvailable {
		return info, err
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return info, fmt.Errorf("failed to locate executable: %w", err)
	}
	if err := Writable(filepath.Dir(exe)); err != nil {
		return info, err
	}

	u.logger.Info("update.applying", "from", info.CurrentVersion, "to", info.LatestVersion)
	if err := u.updater.UpdateTo(ctx, release, exe); err != nil {
		return info, fmt.Errorf("failed to apply update: %w", err)
	}
	u.logger.Info("update.applied", "version", info.LatestVersion)
	return info, nil
}

func (u *Updater) detect(ctx context.Context) (*UpdateInfo, *selfupdate.Release, error) {
	release, found, err := u.updater.DetectLatest(ctx, u.repo)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check for updates: %w", err)
	}
	if !found {
		return nil, nil, ErrNoRelease
	}

	current := version.Version
	return &UpdateInfo{
		CurrentVersion:  current,
		LatestVersion:   release.Version(),
		ReleaseURL:      release.URL,
		PublishedAt:     release.PublishedAt,
		AssetSize:       release.AssetByteSize,
		UpdateAvailable: current == "dev" || release.GreaterThan(current),
	}, release, nil
}

// Writable reports an error if files cannot be created in dir.
func Writable(dir string) error {
	f, err := os.CreateTemp(dir, ".taxiid.update.*")
	if err != nil {
		return fmt.Errorf("no write permission to %s: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
