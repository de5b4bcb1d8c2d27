package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ZhanYiHui06/EveryPaste/internal/assets"
	"github.com/ZhanYiHui06/EveryPaste/internal/clipboard"
	"github.com/ZhanYiHui06/EveryPaste/internal/config"
	"github.com/ZhanYiHui06/EveryPaste/internal/database"
	"github.com/ZhanYiHui06/EveryPaste/internal/imaging"
	"github.com/ZhanYiHui06/EveryPaste/internal/util"
)

// Event notifies surrounding UI that the history changed.
type Event struct {
	Type        string
	ItemID      int64
	ContentType clipboard.ContentType
}

// Notifier receives fire-and-forget history events. Failures are logged
// and never propagate into the capture pipeline.
type Notifier interface {
	Notify(Event) error
}

// LogNotifier is the default Notifier; it just logs the event.
type LogNotifier struct{}

func (LogNotifier) Notify(e Event) error {
	slog.Info("history updated", "event", e.Type, "id", e.ItemID, "type", e.ContentType)
	return nil
}

// Service owns the capture pipeline: one monitor feeding one repository,
// with image payloads spilled to the asset store.
type Service struct {
	cfg      *config.Config
	repo     *database.Repository
	assets   *assets.Store
	device   clipboard.Device
	monitor  *clipboard.Monitor
	notifier Notifier
}

func NewService(cfg *config.Config, repo *database.Repository, assetStore *assets.Store, device clipboard.Device, notifier Notifier) *Service {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Service{
		cfg:      cfg,
		repo:     repo,
		assets:   assetStore,
		device:   device,
		monitor:  clipboard.NewMonitor(device),
		notifier: notifier,
	}
}

// Monitor exposes the poll loop for pause/resume by collaborators that
// write to the clipboard themselves.
func (s *Service) Monitor() *clipboard.Monitor {
	return s.monitor
}

// Start begins clipboard monitoring. The poll interval is read from config
// once, here.
func (s *Service) Start() {
	interval := time.Duration(s.cfg.PollIntervalMs) * time.Millisecond
	s.monitor.Start(interval, func(snap *clipboard.Snapshot) {
		s.HandleSnapshot(context.Background(), snap)
	})
}

// Stop ends monitoring. The repository stays usable until Close.
func (s *Service) Stop() {
	s.monitor.Stop()
}

// HandleSnapshot persists one captured snapshot. Every failure is logged
// and isolated to this capture; the poll loop is never affected.
func (s *Service) HandleSnapshot(ctx context.Context, snap *clipboard.Snapshot) {
	if size := snap.Size(); size > s.cfg.MaxItemSize {
		slog.Warn("clipboard item too large, skipping", "size", size, "max", s.cfg.MaxItemSize)
		return
	}

	// Cheap existence check before any encode or asset work.
	exists, err := s.repo.HashExists(ctx, snap.Hash)
	if err != nil {
		slog.Error("failed to check for duplicate content", "err", err)
		return
	}
	if exists {
		slog.Debug("content already in history, skipping", "hash", util.ShortHash(snap.Hash))
		return
	}

	item, err := s.buildItem(snap)
	if err != nil {
		slog.Error("failed to build history record", "type", snap.Type, "err", err)
		return
	}

	id, err := s.repo.Insert(ctx, item)
	if errors.Is(err, database.ErrDuplicate) {
		slog.Debug("duplicate content raced into history, skipping", "hash", util.ShortHash(snap.Hash))
		return
	}
	if err != nil {
		slog.Error("failed to save history record", "err", err)
		return
	}
	slog.Info("saved clipboard item", "id", id, "type", snap.Type, "hash", util.ShortHash(snap.Hash))

	if deleted, err := s.repo.EnforceLimit(ctx, s.cfg.StorageLimit); err != nil {
		slog.Warn("failed to enforce storage limit", "err", err)
	} else if deleted > 0 {
		slog.Debug("evicted old history records", "count", deleted)
	}

	if s.cfg.ShowNotifications {
		if err := s.notifier.Notify(Event{Type: "new_item", ItemID: id, ContentType: snap.Type}); err != nil {
			slog.Warn("notification failed", "err", err)
		}
	}
}

// buildItem turns a snapshot into an unsaved history record, spilling
// image bytes to the asset store first.
func (s *Service) buildItem(snap *clipboard.Snapshot) (*database.HistoryItem, error) {
	switch snap.Type {
	case clipboard.TypeText:
		return database.NewTextItem(snap.PlainText, snap.Hash, s.cfg.PreviewLength), nil

	case clipboard.TypeRichText:
		return database.NewRichTextItem(snap.PlainText, snap.RichText, snap.Hash, s.cfg.PreviewLength), nil

	case clipboard.TypeImage:
		ref, err := s.assets.Save(snap.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to save image asset: %w", err)
		}

		thumbnail, err := imaging.Thumbnail(snap.Image)
		if err != nil {
			slog.Warn("failed to generate thumbnail", "err", err)
			thumbnail = ""
		}

		return database.NewImageItem(ref, thumbnail, snap.Hash), nil
	}

	return nil, fmt.Errorf("unsupported content type: %s", snap.Type)
}

// PasteItem writes a stored record back to the system clipboard. The
// monitor is paused around the write and primed with the record's hash so
// the write is not re-captured as new content.
func (s *Service) PasteItem(ctx context.Context, id int64) error {
	item, err := s.repo.GetItemByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get item: %w", err)
	}

	s.monitor.Pause()
	defer s.monitor.Resume()

	switch item.ContentType {
	case clipboard.TypeText, clipboard.TypeRichText:
		if err := s.device.WriteText(item.PlainText); err != nil {
			return fmt.Errorf("failed to write text to clipboard: %w", err)
		}

	case clipboard.TypeImage:
		data, err := s.assets.Load(item.ImagePath)
		if err != nil {
			return fmt.Errorf("failed to load image asset: %w", err)
		}
		if err := s.device.WriteImage(data); err != nil {
			return fmt.Errorf("failed to write image to clipboard: %w", err)
		}

	default:
		return fmt.Errorf("unsupported content type: %s", item.ContentType)
	}

	s.monitor.RememberHash(item.Hash)
	return nil
}

// SetStorageLimit updates the configured limit, persists the config, and
// immediately re-applies eviction.
func (s *Service) SetStorageLimit(ctx context.Context, limit int, configPath string) error {
	s.cfg.StorageLimit = limit
	if configPath != "" {
		if err := s.cfg.Save(configPath); err != nil {
			slog.Warn("failed to persist config", "err", err)
		}
	}
	if _, err := s.repo.EnforceLimit(ctx, limit); err != nil {
		return fmt.Errorf("failed to apply new storage limit: %w", err)
	}
	return nil
}

// DataDir returns the configured data directory, defaulting to
// ~/.everypaste.
func DataDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.DataDir != "" {
		return cfg.DataDir, os.MkdirAll(cfg.DataDir, 0755)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(homeDir, ".everypaste")
	return dir, os.MkdirAll(dir, 0755)
}
