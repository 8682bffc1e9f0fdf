// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package collect

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tsepg/tsepg/pkg/epg"
)

type fakeTuner struct{}

func (fakeTuner) Open(ctx context.Context, tuningKey string, budget time.Duration) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

// scriptedHelperRunner returns canned stdout for scan_services commands
// and canned NDJSON for collect_eits commands, keyed by substring match
// on the rendered command line.
type scriptedHelperRunner struct {
	byContains map[string]string
	exitErr    error
}

func (r scriptedHelperRunner) Run(ctx context.Context, commandLine string, stdin io.Reader) (*HelperOutput, error) {
	for substr, out := range r.byContains {
		if strings.Contains(commandLine, substr) {
			return &HelperOutput{
				Stdout: io.NopCloser(strings.NewReader(out)),
				wait:   func() error { return r.exitErr },
			}, nil
		}
	}
	return &HelperOutput{Stdout: io.NopCloser(strings.NewReader("")), wait: func() error { return nil }}, nil
}

func chTest(name string) epg.Channel {
	return epg.Channel{Name: name, Type: epg.GR, TuningKey: name}
}

func TestScanChannelParsesServices(t *testing.T) {
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{byContains: map[string]string{
			"scan_services": `[{"nid":1,"tsid":2,"sid":3,"type":1,"logoId":-1,"remoteControlKeyId":1,"name":"Example TV"}]`,
		}},
		ScanServicesCmd: "scan_services",
	}, epg.NewIndex())

	services, err := c.scanChannel(context.Background(), chTest("ch1"))
	require.NoError(t, err)
	require.Len(t, services, 1)
	require.Equal(t, "Example TV", services[0].Name)
	require.Equal(t, epg.NewServiceKey(1, 2, 3), services[0].Key)
}

func TestScanServicesSkipsChannelOnInvalidJSON(t *testing.T) {
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{byContains: map[string]string{
			"scan_services": `not json`,
		}},
		ScanServicesCmd: "scan_services",
		Channels:        []epg.Channel{chTest("ch1"), chTest("ch2")},
	}, epg.NewIndex())

	services, err := c.scanServices(context.Background())
	require.NoError(t, err)
	require.Empty(t, services)
}

type failingTuner struct{ err error }

func (f failingTuner) Open(ctx context.Context, tuningKey string, budget time.Duration) (io.ReadCloser, error) {
	return nil, f.err
}

// TestScanServicesAbortsOnTunerFailure ensures a tuner-open failure is
// not folded into the "channel suspended" EmptyScanWarning case: it is
// a TransientCollectError and must abort the pass so RunOnce can back
// off and retry, not silently reap the channel's schedules.
func TestScanServicesAbortsOnTunerFailure(t *testing.T) {
	c := New(Config{
		Tuner:           failingTuner{err: context.DeadlineExceeded},
		Helpers:         scriptedHelperRunner{byContains: map[string]string{}},
		ScanServicesCmd: "scan_services",
		Channels:        []epg.Channel{chTest("ch1")},
	}, epg.NewIndex())

	services, err := c.scanServices(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransientCollect)
	require.Empty(t, services)
}

func TestCollectNetworkParsesNDJSONSections(t *testing.T) {
	idx := epg.NewIndex()
	svc := epg.Service{Key: epg.NewServiceKey(1, 2, 3), Name: "Example TV", Channel: chTest("ch1")}
	idx.PrepareSchedules([]epg.Service{svc}, epg.Now())

	section := `{"originalNetworkId":1,"transportStreamId":2,"serviceId":3,"tableId":80,"sectionNumber":0,"lastSectionNumber":7,"segmentLastSectionNumber":7,"versionNumber":1,"events":[{"eventId":10}]}`
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{byContains: map[string]string{
			"collect_eits": section + "\n",
		}},
		CollectEitsCmd: "collect_eits",
	}, idx)

	n, err := c.collectNetwork(context.Background(), chTest("ch1"))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	sched, ok := idx.Get(svc.Key)
	require.True(t, ok)
	require.NotNil(t, sched.Tables[0])
}

func TestCollectNetworkSkipsOutOfProfileSections(t *testing.T) {
	idx := epg.NewIndex()
	svc := epg.Service{Key: epg.NewServiceKey(1, 2, 3), Channel: chTest("ch1")}
	idx.PrepareSchedules([]epg.Service{svc}, epg.Now())

	section := `{"originalNetworkId":1,"transportStreamId":2,"serviceId":3,"tableId":1,"sectionNumber":0,"lastSectionNumber":7,"segmentLastSectionNumber":7}`
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{byContains: map[string]string{
			"collect_eits": section + "\n",
		}},
		CollectEitsCmd: "collect_eits",
	}, idx)

	n, err := c.collectNetwork(context.Background(), chTest("ch1"))
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

func TestRunOncePublishesSnapshot(t *testing.T) {
	section := `{"originalNetworkId":1,"transportStreamId":2,"serviceId":3,"tableId":80,"sectionNumber":0,"lastSectionNumber":7,"segmentLastSectionNumber":7,"versionNumber":1,"events":[{"eventId":10,"descriptors":[{"type":"ShortEvent","shortEvent":{"eventName":"Program A","text":"desc"}}]}]}`
	var published epg.Snapshot
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{byContains: map[string]string{
			"scan_services": `[{"nid":1,"tsid":2,"sid":3,"type":1,"name":"Example TV"}]`,
			"collect_eits":  section + "\n",
		}},
		ScanServicesCmd: "scan_services",
		CollectEitsCmd:  "collect_eits",
		CacheDir:        t.TempDir(),
		Channels:        []epg.Channel{chTest("ch1")},
		Publisher: PublisherFunc(func(ctx context.Context, snap epg.Snapshot) error {
			published = snap
			return nil
		}),
	}, epg.NewIndex())

	stats, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.ServicesFound)
	require.Equal(t, 1, stats.SectionsCollected)
	require.Len(t, published.Services, 1)
	require.Len(t, published.Programs, 1)
}

func TestRunOnceFailsOnCollectEitsExitError(t *testing.T) {
	c := New(Config{
		Tuner: fakeTuner{},
		Helpers: scriptedHelperRunner{
			byContains: map[string]string{
				"scan_services": `[{"nid":1,"tsid":2,"sid":3,"type":1,"name":"Example TV"}]`,
				"collect_eits":  "",
			},
			exitErr: context.DeadlineExceeded,
		},
		ScanServicesCmd: "scan_services",
		CollectEitsCmd:  "collect_eits",
		CacheDir:        t.TempDir(),
		Channels:        []epg.Channel{chTest("ch1")},
	}, epg.NewIndex())

	_, err := c.RunOnce(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrTransientCollect)
}

// TestDailyGuardPostponesNearMidnight exercises the postponement
// branch in Coordinator.Run directly through the extracted guard
// function: with a 50-minute observed pass duration, a pass starting
// at 23:30 has only 30 minutes until midnight, less than the ~50m30s
// estimate, so it must be postponed to just past midnight rather than
// run now.
func TestDailyGuardPostponesNearMidnight(t *testing.T) {
	now := time.Date(2019, 10, 13, 23, 30, 0, 0, epg.JST)
	estimate := 50*time.Minute + 30*time.Second

	wait, postpone := dailyGuardWait(now, estimate)
	require.True(t, postpone)
	require.Equal(t, 30*time.Minute+10*time.Second, wait)
	require.Equal(t, time.Date(2019, 10, 14, 0, 0, 10, 0, epg.JST), now.Add(wait))
}

// TestDailyGuardRunsWhenEnoughTimeRemains is the complement: with
// ample time before midnight, the guard must not postpone.
func TestDailyGuardRunsWhenEnoughTimeRemains(t *testing.T) {
	now := time.Date(2019, 10, 13, 10, 0, 0, 0, epg.JST)
	estimate := 50*time.Minute + 30*time.Second

	wait, postpone := dailyGuardWait(now, estimate)
	require.False(t, postpone)
	require.Equal(t, time.Duration(0), wait)
}
