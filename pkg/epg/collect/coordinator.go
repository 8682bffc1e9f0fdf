// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/tsepg/tsepg/pkg/epg"
)

// Per-channel-type tuner budgets for service discovery.
func scanServicesBudget(ct epg.ChannelType) time.Duration {
	switch ct {
	case epg.GR:
		return 10 * time.Second
	case epg.BS:
		return 20 * time.Second
	default:
		return 30 * time.Minute
	}
}

// Per-channel-type tuner budgets for EIT collection.
func collectEitsBudget(ct epg.ChannelType) time.Duration {
	switch ct {
	case epg.GR:
		return 70 * time.Second
	case epg.BS:
		return 390 * time.Second
	default:
		return 10 * time.Minute
	}
}

const (
	successBackoff  = 15 * time.Minute
	failureBackoff  = 5 * time.Minute
	defaultEstimate = time.Hour
)

// scannedService is the scan_services wire record.
type scannedService struct {
	NID                uint16 `json:"nid"`
	TSID               uint16 `json:"tsid"`
	SID                uint16 `json:"sid"`
	Type               uint16 `json:"type"`
	LogoID             int16  `json:"logoId"`
	RemoteControlKeyID uint16 `json:"remoteControlKeyId"`
	Name               string `json:"name"`
}

// Publisher is the downstream consumer of a published snapshot.
// cmd/tsepgd/app implements it by storing the latest snapshot for its
// HTTP surface.
type Publisher interface {
	Publish(ctx context.Context, snap epg.Snapshot) error
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(ctx context.Context, snap epg.Snapshot) error

func (f PublisherFunc) Publish(ctx context.Context, snap epg.Snapshot) error { return f(ctx, snap) }

// PassStats carries the user-visible counts and timing logged for
// every pass.
type PassStats struct {
	ServicesFound     int
	SectionsCollected int
	ProgramsPublished int
	Elapsed           time.Duration
	Failed            bool
}

// Config configures a Coordinator. Channels, the helper command
// templates, and CacheDir are operator configuration, consumed but not
// parsed by this package.
type Config struct {
	Channels           []epg.Channel
	ScanServicesCmd    string
	CollectEitsCmd     string
	CacheDir           string
	Tuner              Tuner
	Helpers            HelperRunner
	Publisher          Publisher
	Logger             *slog.Logger
	OnPass             func(PassStats)
}

// Coordinator drives the repeating discover-collect-publish pass. It
// owns an *epg.Index exclusively; nothing else may mutate it.
//
// State machine: Idle -> Scanning -> Collecting -> Persisting ->
// Publishing -> Idle, with any transition able to fail into
// Idle-with-backoff. Only one pass runs at a time, held by a single
// timer, matching the single-threaded-owner model of original_source's
// actor.
type Coordinator struct {
	cfg    Config
	log    *slog.Logger
	index  *epg.Index
	mu     sync.Mutex // guards maxElapsed only; Index itself is single-owner
	maxElapsed    time.Duration
	haveMaxElapsed bool
}

// New returns a Coordinator that owns idx. idx may come from
// epg.LoadIndex at startup or be a fresh epg.NewIndex().
func New(cfg Config, idx *epg.Index) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tuner == nil {
		cfg.Tuner = NopTuner{}
	}
	if cfg.Helpers == nil {
		cfg.Helpers = ExecHelperRunner{}
	}
	return &Coordinator{cfg: cfg, log: logger, index: idx}
}

// Index returns the Coordinator's owned Index, for read-only inspection
// between passes. The HTTP snapshot viewer does not use it; it serves
// the snapshot handed to the Publisher.
func (c *Coordinator) Index() *epg.Index { return c.index }

func (c *Coordinator) estimateTime() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveMaxElapsed {
		return defaultEstimate
	}
	return c.maxElapsed + 30*time.Second
}

// dailyGuardWait decides whether a pass starting at now should be
// postponed to protect same-day EPG consistency: a pass must not still
// be running when midnight crosses, since PrepareSchedules' overnight
// rescue depends on running before the day's first section write. If
// the time remaining until the next midnight is less than estimate
// (the worst pass duration observed so far, plus margin), the pass is
// postponed to just after that midnight instead of starting now.
func dailyGuardWait(now time.Time, estimate time.Duration) (wait time.Duration, postpone bool) {
	remaining := epg.NextMidnight(now).Sub(now)
	if remaining < estimate {
		return remaining + 10*time.Second, true
	}
	return 0, false
}

func (c *Coordinator) updateMaxElapsed(elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveMaxElapsed || elapsed > c.maxElapsed {
		c.haveMaxElapsed = true
		c.maxElapsed = elapsed
	}
}

// Run drives the repeating pass forever, until ctx is cancelled. force
// receives a signal to run a pass immediately, bypassing the wait
// timer but never the daily guard.
func (c *Coordinator) Run(ctx context.Context, force <-chan struct{}) {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	wait := time.Duration(0)
	for {
		timer = time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-force:
			timer.Stop()
		case <-timer.C:
		}

		now := epg.Now()
		if postponeWait, postpone := dailyGuardWait(now, c.estimateTime()); postpone {
			c.log.Info("postponing pass to keep daily EPG consistency",
				"wait", postponeWait, "estimate", c.estimateTime())
			wait = postponeWait
			continue
		}

		stats, err := c.RunOnce(ctx)
		if err != nil {
			c.log.Error("pass failed", "err", err)
			wait = failureBackoff
		} else {
			c.log.Info("pass done",
				"elapsed", stats.Elapsed,
				"services", stats.ServicesFound,
				"sections", stats.SectionsCollected,
				"programs", stats.ProgramsPublished)
			c.updateMaxElapsed(stats.Elapsed)
			wait = successBackoff
		}
		if c.cfg.OnPass != nil {
			c.cfg.OnPass(stats)
		}
	}
}

// RunOnce executes a single discover-collect-persist-publish pass. It
// never checks the daily guard itself — Run does that before calling
// it — so tests can call it directly. The "run now" HTTP trigger does
// not call it; it signals Run's force channel, so the guard still applies.
func (c *Coordinator) RunOnce(ctx context.Context) (PassStats, error) {
	start := epg.Now()
	stats := PassStats{}

	services, err := c.scanServices(ctx)
	if err != nil {
		stats.Failed = true
		return stats, fmt.Errorf("scan services: %w", err)
	}
	stats.ServicesFound = len(services)

	c.index.PrepareSchedules(services, start)

	n, err := c.collectSections(ctx, services)
	if err != nil {
		stats.Failed = true
		return stats, fmt.Errorf("collect sections: %w", err)
	}
	stats.SectionsCollected = n

	if err := epg.SaveIndex(c.cfg.CacheDir, c.index); err != nil {
		stats.Failed = true
		return stats, fmt.Errorf("%w: %w: %v", ErrTransientCollect, ErrCacheSave, err)
	}

	snap := epg.Flatten(c.index)
	stats.ProgramsPublished = len(snap.Programs)
	if c.cfg.Publisher != nil {
		if err := c.cfg.Publisher.Publish(ctx, snap); err != nil {
			stats.Failed = true
			return stats, fmt.Errorf("publish: %w", err)
		}
	}

	stats.Elapsed = epg.Now().Sub(start)
	return stats, nil
}

// scanServices implements §4.6 step 2: sequential, per-channel
// discovery. A channel whose scan_services output is not valid JSON
// yields no services for that channel — it is the explicit signal that
// a broadcast service has been suspended, not a pass-aborting error.
// A tuner-open or helper-spawn failure is a real hardware/transient
// fault and aborts the pass so RunOnce can back off and retry; an
// invalid command template (ErrFatalConfig) aborts the pass as well.
func (c *Coordinator) scanServices(ctx context.Context) ([]epg.Service, error) {
	var all []epg.Service
	for _, ch := range c.cfg.Channels {
		c.log.Info("scanning services", "channel", ch.Name)
		services, err := c.scanChannel(ctx, ch)
		if err != nil {
			if errors.Is(err, ErrTransientCollect) || errors.Is(err, ErrFatalConfig) {
				return nil, err
			}
			c.log.Warn("no services found, channel may be suspended", "channel", ch.Name, "err", err)
			continue
		}
		all = append(all, services...)
	}
	return all, nil
}

func (c *Coordinator) scanChannel(ctx context.Context, ch epg.Channel) ([]epg.Service, error) {
	stream, err := c.cfg.Tuner.Open(ctx, ch.TuningKey, scanServicesBudget(ch.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: open tuner: %v", ErrTransientCollect, err)
	}
	defer stream.Close()

	cmd, err := renderHelperCommand(c.cfg.ScanServicesCmd, ch)
	if err != nil {
		return nil, err
	}
	out, err := c.cfg.Helpers.Run(ctx, cmd, stream)
	if err != nil {
		return nil, fmt.Errorf("%w: run scan_services: %v", ErrTransientCollect, err)
	}

	raw, readErr := io.ReadAll(out.Stdout)
	out.Stdout.Close()
	_ = out.Wait() // nonzero exit is an empty result, not an error, for scan_services

	if readErr != nil {
		return nil, fmt.Errorf("%w: read scan_services output: %v", ErrTransientCollect, readErr)
	}

	var scanned []scannedService
	if err := json.Unmarshal(bytes.TrimSpace(raw), &scanned); err != nil {
		return nil, fmt.Errorf("invalid scan_services JSON: %w", err)
	}

	services := make([]epg.Service, 0, len(scanned))
	for _, sv := range scanned {
		services = append(services, epg.Service{
			Key:                epg.NewServiceKey(sv.NID, sv.TSID, sv.SID),
			ServiceType:        sv.Type,
			LogoID:             sv.LogoID,
			RemoteControlKeyID: sv.RemoteControlKeyID,
			Name:               sv.Name,
			Channel:            ch,
		})
	}
	c.log.Info("found services", "channel", ch.Name, "count", len(services))
	return services, nil
}

// collectSections implements §4.6 steps 4-5: group observed services
// by network, merging excluded-service sets, then collect EIT sections
// for each network in sequence.
func (c *Coordinator) collectSections(ctx context.Context, services []epg.Service) (int, error) {
	byNID := make(map[uint16]epg.Channel)
	order := make([]uint16, 0)
	for _, sv := range services {
		ch, ok := byNID[sv.Key.NID()]
		if !ok {
			ch = sv.Channel
			ch.ExcludedServiceIDs = make(map[uint16]struct{})
			ch.MergeExcluded(sv.Channel.ExcludedServiceIDs)
			byNID[sv.Key.NID()] = ch
			order = append(order, sv.Key.NID())
			continue
		}
		ch.MergeExcluded(sv.Channel.ExcludedServiceIDs)
		byNID[sv.Key.NID()] = ch
	}

	total := 0
	for _, nid := range order {
		ch := byNID[nid]
		c.log.Info("updating schedule", "channel", ch.Name)
		n, err := c.collectNetwork(ctx, ch)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (c *Coordinator) collectNetwork(ctx context.Context, ch epg.Channel) (int, error) {
	stream, err := c.cfg.Tuner.Open(ctx, ch.TuningKey, collectEitsBudget(ch.Type))
	if err != nil {
		return 0, fmt.Errorf("%w: open tuner: %v", ErrTransientCollect, err)
	}
	defer stream.Close()

	cmd, err := renderHelperCommand(c.cfg.CollectEitsCmd, ch)
	if err != nil {
		return 0, err
	}
	out, err := c.cfg.Helpers.Run(ctx, cmd, stream)
	if err != nil {
		return 0, fmt.Errorf("%w: run collect_eits: %v", ErrTransientCollect, err)
	}
	defer out.Stdout.Close()

	count := 0
	sc := scanLines(out.Stdout)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		section, err := epg.ParseSection(line)
		if err != nil {
			return count, fmt.Errorf("%w: %v", ErrTransientCollect, err)
		}
		if !section.InProfile() {
			continue
		}
		if sched, ok := c.index.Get(section.ScheduleKey()); ok {
			sched.Update(section)
		}
		count++
	}
	if err := sc.Err(); err != nil {
		return count, fmt.Errorf("%w: read collect_eits output: %v", ErrTransientCollect, err)
	}
	if err := out.Wait(); err != nil {
		return count, fmt.Errorf("%w: collect_eits exited nonzero: %v", ErrTransientCollect, err)
	}
	c.log.Debug("collected EIT sections", "channel", ch.Name, "count", count)
	return count, nil
}
