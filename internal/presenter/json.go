package presenter

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// ZoneInfoResponse is the JSON body of both zone views
type ZoneInfoResponse struct {
	AvailabilityZoneInfo []ZoneView `json:"availabilityZoneInfo"`
}

// ZoneView is one zone. A nil Hosts renders as null, an empty one as {}.
type ZoneView struct {
	ZoneName  string        `json:"zoneName"`
	ZoneState ZoneStateView `json:"zoneState"`
	Hosts     *HostsView    `json:"hosts"`
}

// ZoneStateView carries the zone availability
type ZoneStateView struct {
	Available bool `json:"available"`
}

// HostsView maps host -> binary -> state, in first-seen order
type HostsView = orderedmap.OrderedMap[string, *ServicesView]

// ServicesView maps binary -> state, in first-seen order
type ServicesView = orderedmap.OrderedMap[string, ServiceStateView]

// ServiceStateView is the per-service entry. UpdatedAt is null for a service
// that never reported.
type ServiceStateView struct {
	Available bool    `json:"available"`
	Active    bool    `json:"active"`
	UpdatedAt *string `json:"updated_at"`
}

// FromZones maps built zones to their JSON view
func FromZones(zones []domain.Zone) ZoneInfoResponse {
	views := make([]ZoneView, 0, len(zones))
	for _, z := range zones {
		views = append(views, ZoneView{
			ZoneName:  z.Name,
			ZoneState: ZoneStateView{Available: z.Available},
			Hosts:     hostsView(z.Hosts),
		})
	}
	return ZoneInfoResponse{AvailabilityZoneInfo: views}
}

func hostsView(hosts domain.Hosts) *HostsView {
	if !hosts.Present() {
		return nil
	}
	view := orderedmap.New[string, *ServicesView]()
	hosts.Each(func(host string, services *domain.Services) bool {
		sv := orderedmap.New[string, ServiceStateView]()
		for pair := services.Oldest(); pair != nil; pair = pair.Next() {
			sv.Set(pair.Key, serviceStateView(pair.Value))
		}
		view.Set(host, sv)
		return true
	})
	return view
}

func serviceStateView(state domain.ServiceState) ServiceStateView {
	view := ServiceStateView{Available: state.Available, Active: state.Active}
	if !state.UpdatedAt.IsZero() {
		ts := state.UpdatedAt.UTC().Format(domain.TimestampLayout)
		view.UpdatedAt = &ts
	}
	return view
}

// Zones rebuilds domain zones from the view
func (r ZoneInfoResponse) Zones() ([]domain.Zone, error) {
	zones := make([]domain.Zone, 0, len(r.AvailabilityZoneInfo))
	for _, v := range r.AvailabilityZoneInfo {
		zone := domain.Zone{Name: v.ZoneName, Available: v.ZoneState.Available, Hosts: domain.NoHosts()}
		if v.Hosts != nil {
			zone.Hosts = domain.NewHosts()
			for host := v.Hosts.Oldest(); host != nil; host = host.Next() {
				if host.Value == nil {
					continue
				}
				for svc := host.Value.Oldest(); svc != nil; svc = svc.Next() {
					state := domain.ServiceState{Active: svc.Value.Active, Available: svc.Value.Available}
					if svc.Value.UpdatedAt != nil {
						ts, err := time.Parse(domain.TimestampLayout, *svc.Value.UpdatedAt)
						if err != nil {
							return nil, fmt.Errorf("invalid updated_at for %s on %s: %w", svc.Key, host.Key, err)
						}
						state.UpdatedAt = ts
					}
					zone.Hosts.Add(host.Key, svc.Key, state)
				}
			}
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

// EncodeJSON writes zones as a JSON document
func EncodeJSON(w io.Writer, zones []domain.Zone) error {
	return json.NewEncoder(w).Encode(FromZones(zones))
}

// DecodeJSON reads a JSON document written by EncodeJSON
func DecodeJSON(r io.Reader) ([]domain.Zone, error) {
	var resp ZoneInfoResponse
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode zones: %w", err)
	}
	return resp.Zones()
}
