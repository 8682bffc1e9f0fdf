// Copyright 2024 tsepg project contributors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package epg

// ServiceChannel is the channel information carried on a flattened
// ServiceModel.
type ServiceChannel struct {
	Type      ChannelType `json:"type"`
	TuningKey string      `json:"channel"`
}

// ServiceModel is the flattened, publish-ready view of a Service.
type ServiceModel struct {
	ID                 uint64         `json:"id"`
	ServiceID          uint16         `json:"serviceId"`
	NetworkID          uint16         `json:"networkId"`
	ServiceType        uint16         `json:"serviceType"`
	LogoID             int16          `json:"logoId"`
	RemoteControlKeyID uint16         `json:"remoteControlKeyId"`
	Name               string         `json:"name"`
	Channel            ServiceChannel `json:"channel"`
	HasLogoData        bool           `json:"hasLogoData"`
}

// MakeServiceID packs (sid, nid) into a stable published service id.
// This is a distinct, narrower identity than ServiceKey: it omits
// tsid, matching ServiceModel's role as a UI-facing identifier rather
// than a collection-time lookup key.
func MakeServiceID(sid, nid uint16) uint64 {
	return uint64(nid)<<16 | uint64(sid)
}

func newServiceModel(svc Service) ServiceModel {
	return ServiceModel{
		ID:                 MakeServiceID(svc.Key.SID(), svc.Key.NID()),
		ServiceID:          svc.Key.SID(),
		NetworkID:          svc.Key.NID(),
		ServiceType:        svc.ServiceType,
		LogoID:             svc.LogoID,
		RemoteControlKeyID: svc.RemoteControlKeyID,
		Name:               svc.Name,
		Channel: ServiceChannel{
			Type:      svc.Channel.Type,
			TuningKey: svc.Channel.TuningKey,
		},
		HasLogoData: false,
	}
}

// Snapshot is the published view a Flattener pass produces: every
// discovered service and a deduplicated program map.
type Snapshot struct {
	Services []ServiceModel           `json:"services"`
	Programs map[ProgramKey]*Program  `json:"programs"`
}

// Flatten walks every Schedule in idx and builds a Snapshot: one
// ServiceModel per Schedule, and a ProgramKey -> Program map folded
// from every Schedule's overnight events then tables, per §4.3's
// ordering note.
func Flatten(idx *Index) Snapshot {
	services := make([]ServiceModel, 0, idx.Len())
	programs := make(map[ProgramKey]*Program)
	idx.Each(func(_ ServiceKey, sched *Schedule) {
		services = append(services, newServiceModel(sched.Service))
		sched.CollectPrograms(programs)
	})
	return Snapshot{Services: services, Programs: programs}
}
