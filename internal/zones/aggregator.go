package zones

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// MembershipResolver lists zones from grouping metadata. It is only asked
// when there is no service record to group.
type MembershipResolver interface {
	Zones(ctx context.Context) (available, unavailable []string, err error)
}

// Aggregator builds the summary and detail views from liveness-annotated
// service records. It holds no mutable state and is safe for concurrent use.
type Aggregator struct {
	internalZone string
}

// New returns an Aggregator that treats internalZone as the control-plane zone
func New(internalZone string) *Aggregator {
	return &Aggregator{internalZone: internalZone}
}

// FilteredZones formats one summary row per name, in input order, with the
// given availability. The internal zone is skipped. Names are not deduplicated.
func (a *Aggregator) FilteredZones(names []string, available bool) []domain.Zone {
	result := make([]domain.Zone, 0, len(names))
	for _, name := range names {
		if name == a.internalZone {
			continue
		}
		result = append(result, domain.Zone{
			Name:      name,
			Available: available,
			Hosts:     domain.NoHosts(),
		})
	}
	return result
}

// Summary builds the index view in a single pass.
//
// A zone is available when at least one enabled service in it is live.
// Available zones come first, then unavailable ones, each in first-seen order.
func (a *Aggregator) Summary(services []domain.ObservedService) ([]domain.Zone, error) {
	if err := validate(services); err != nil {
		return nil, err
	}

	var order []string
	live := make(map[string]bool)
	for _, svc := range services {
		zone := svc.Record.ZoneLabel
		if _, seen := live[zone]; !seen {
			order = append(order, zone)
			live[zone] = false
		}
		if svc.Record.Active() && svc.Alive {
			live[zone] = true
		}
	}

	var available, unavailable []string
	for _, zone := range order {
		if live[zone] {
			available = append(available, zone)
		} else {
			unavailable = append(unavailable, zone)
		}
	}

	result := a.FilteredZones(available, true)
	return append(result, a.FilteredZones(unavailable, false)...), nil
}

// Detail builds the zone -> host -> service tree.
//
// Zones with at least one enabled service carry every service of the zone,
// and their availability is the OR over those entries. Zones whose services
// are all disabled follow as unavailable rows without hosts. With no services
// at all, the zones come from the resolver instead.
func (a *Aggregator) Detail(ctx context.Context, services []domain.ObservedService, resolver MembershipResolver) ([]domain.Zone, error) {
	if len(services) == 0 {
		return a.fromResolver(ctx, resolver)
	}
	if err := validate(services); err != nil {
		return nil, err
	}

	var order []string
	trees := make(map[string]domain.Hosts)
	reporting := make(map[string]bool)
	for _, svc := range services {
		zone := svc.Record.ZoneLabel
		if _, seen := trees[zone]; !seen {
			order = append(order, zone)
			trees[zone] = domain.NewHosts()
		}
		trees[zone].Add(svc.Record.Host, svc.Record.Binary, svc.State())
		if svc.Record.Active() {
			reporting[zone] = true
		}
	}

	result := make([]domain.Zone, 0, len(order))
	var silent []string
	for _, zone := range order {
		if !reporting[zone] {
			silent = append(silent, zone)
			continue
		}
		hosts := trees[zone]
		result = append(result, domain.Zone{
			Name:      zone,
			Available: hosts.Available(),
			Hosts:     hosts,
		})
	}
	for _, zone := range silent {
		result = append(result, domain.Zone{Name: zone, Available: false, Hosts: domain.NoHosts()})
	}

	return result, nil
}

func (a *Aggregator) fromResolver(ctx context.Context, resolver MembershipResolver) ([]domain.Zone, error) {
	if resolver == nil {
		return []domain.Zone{}, nil
	}

	available, unavailable, err := resolver.Zones(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve zone membership: %w", err)
	}

	result := make([]domain.Zone, 0, len(available)+len(unavailable))
	for _, name := range available {
		result = append(result, domain.Zone{Name: name, Available: true, Hosts: domain.NewHosts()})
	}
	for _, name := range unavailable {
		result = append(result, domain.Zone{Name: name, Available: false, Hosts: domain.NoHosts()})
	}
	return result, nil
}

// validate rejects the whole batch on the first incomplete or repeated record
func validate(services []domain.ObservedService) error {
	type key struct{ zone, host, binary string }
	seen := make(map[key]struct{}, len(services))

	for _, svc := range services {
		if err := svc.Record.Validate(); err != nil {
			return err
		}
		k := key{svc.Record.ZoneLabel, svc.Record.Host, svc.Record.Binary}
		if _, dup := seen[k]; dup {
			return fmt.Errorf("%w: service %s on host %q reported twice in zone %q",
				domain.ErrMalformedRecord, k.binary, k.host, k.zone)
		}
		seen[k] = struct{}{}
	}
	return nil
}
