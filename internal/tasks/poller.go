package tasks

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/nixflix/internal/shared"
)

// Syncer performs a single sync attempt. [SyncEngine] implements it.
type Syncer interface {
	RunOnce(ctx context.Context, destinationName, albumName string, force bool, progress chan<- ProgressUpdate) (*SyncResult, error)
}

// Poller repeats sync attempts on a fixed interval until its context is cancelled.
//
// Failed attempts are logged and the next tick tries again. There is no backoff.
type Poller struct {
	Syncer   Syncer
	Playlist string
	Album    string
	Force    bool
	Interval time.Duration // 0 runs exactly once
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
	OnResult func(*SyncResult) // called after every attempt, may be nil

	trigger chan bool
}

// NewPoller creates a [Poller] for one playlist and album pair.
func NewPoller(s Syncer, playlist, album string, interval time.Duration, logger *log.Logger) *Poller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Poller{
		Syncer:   s,
		Playlist: playlist,
		Album:    album,
		Interval: interval,
		Logger:   logger,
		trigger:  make(chan bool, 1),
	}
}

// Trigger requests an immediate attempt. force applies to that attempt only.
// A trigger arriving while another is pending is dropped.
func (p *Poller) Trigger(force bool) {
	select {
	case p.trigger <- force:
	default:
	}
}

// Run performs an attempt immediately and then one per interval.
//
// With a zero interval it returns the error of the single attempt. Otherwise it returns nil once
// ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	if p.trigger == nil {
		p.trigger = make(chan bool, 1)
	}

	err := p.attempt(ctx, p.Force)
	if p.Interval <= 0 {
		return err
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.Logger.Info("polling", "every", p.Interval)
	for {
		select {
		case <-ctx.Done():
			p.Logger.Info("polling stopped")
			return nil
		case <-ticker.C:
			p.attempt(ctx, p.Force)
		case force := <-p.trigger:
			p.attempt(ctx, p.Force || force)
			ticker.Reset(p.Interval)
		}
	}
}

func (p *Poller) attempt(ctx context.Context, force bool) error {
	result, err := p.Syncer.RunOnce(ctx, p.Playlist, p.Album, force, p.Progress)
	if err != nil {
		p.Logger.Error("sync attempt failed", "playlist", p.Playlist, "album", p.Album, "err", err)
	} else {
		p.Logger.Info(result.Summary(), "playlist", p.Playlist, "album", p.Album)
	}
	if p.OnResult != nil && result != nil {
		p.OnResult(result)
	}
	return err
}
