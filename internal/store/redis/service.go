package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// maxUpdateRetries bounds the optimistic retries of a contended update
const maxUpdateRetries = 100

// Store handles Redis operations for the service registry and host aggregates
type Store struct {
	client *redis.Client
}

// NewStore creates a new Redis store
func NewStore(client *redis.Client) *Store {
	return &Store{
		client: client,
	}
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// GetService retrieves a service record by ID
func (s *Store) GetService(ctx context.Context, id string) (*domain.ServiceRecord, error) {
	data, err := s.client.Get(ctx, ServiceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", domain.ErrServiceNotFound, id)
		}
		return nil, fmt.Errorf("failed to get service: %w", err)
	}

	var record domain.ServiceRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal service: %w", err)
	}

	return &record, nil
}

// ListServices returns every service record in registration order
func (s *Store) ListServices(ctx context.Context) ([]domain.ServiceRecord, error) {
	ids, err := s.client.ZRange(ctx, ServicesIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get service IDs: %w", err)
	}

	if len(ids) == 0 {
		return []domain.ServiceRecord{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = ServiceKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get services: %w", err)
	}

	records := make([]domain.ServiceRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// Index entry without a record, left behind by an interrupted delete
			continue
		}
		var record domain.ServiceRecord
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal service %s: %w", ids[i], err)
		}
		records = append(records, record)
	}

	return records, nil
}

// DeleteService removes a service record
func (s *Store) DeleteService(ctx context.Context, id string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, ServiceKey(id))
	pipe.ZRem(ctx, ServicesIndexKey(), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete service: %w", err)
	}

	return nil
}

// SeedServices registers records that are not known yet and leaves existing
// ones untouched. It returns how many were added.
func (s *Store) SeedServices(ctx context.Context, records []domain.ServiceRecord) (int, error) {
	pipe := s.client.Pipeline()
	added := make([]*redis.BoolCmd, 0, len(records))

	for _, record := range records {
		record = normalize(record)
		data, err := json.Marshal(record)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal service %s: %w", record.ID, err)
		}

		added = append(added, pipe.SetNX(ctx, ServiceKey(record.ID), data, 0))
		pipe.ZAddNX(ctx, ServicesIndexKey(), redis.Z{Score: score(record.CreatedAt), Member: record.ID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to seed services: %w", err)
	}

	count := 0
	for _, cmd := range added {
		if cmd.Val() {
			count++
		}
	}
	return count, nil
}

// Heartbeat records a report from binary on host at now, registering the
// service on its first report. It returns the updated record.
func (s *Store) Heartbeat(ctx context.Context, host, binary, topic string, now time.Time) (*domain.ServiceRecord, error) {
	id := domain.ServiceID(host, binary)

	return s.update(ctx, id, func(record *domain.ServiceRecord, found bool) error {
		if !found {
			*record = domain.ServiceRecord{
				ID:        id,
				Host:      host,
				Binary:    binary,
				CreatedAt: now,
			}
		}
		if topic != "" {
			record.Topic = topic
		}
		record.UpdatedAt = now
		return nil
	})
}

// SetDisabled flips the administrative flag of binary on host
func (s *Store) SetDisabled(ctx context.Context, host, binary string, disabled bool) (*domain.ServiceRecord, error) {
	id := domain.ServiceID(host, binary)

	return s.update(ctx, id, func(record *domain.ServiceRecord, found bool) error {
		if !found {
			return fmt.Errorf("%w: %s on host %s", domain.ErrServiceNotFound, binary, host)
		}
		record.Disabled = disabled
		return nil
	})
}

// update applies fn to the record under an optimistic lock on its key
func (s *Store) update(ctx context.Context, id string, fn func(record *domain.ServiceRecord, found bool) error) (*domain.ServiceRecord, error) {
	key := ServiceKey(id)
	var result domain.ServiceRecord

	txf := func(tx *redis.Tx) error {
		var record domain.ServiceRecord
		found := true

		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			found = false
		case err != nil:
			return fmt.Errorf("failed to get service: %w", err)
		default:
			if err := json.Unmarshal(data, &record); err != nil {
				return fmt.Errorf("failed to unmarshal service: %w", err)
			}
		}

		if err := fn(&record, found); err != nil {
			return err
		}

		record = normalize(record)
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal service: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			pipe.ZAdd(ctx, ServicesIndexKey(), redis.Z{Score: score(record.CreatedAt), Member: record.ID})
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to save service: %w", err)
		}

		result = record
		return nil
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return &result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("failed to update service %s: %w", id, redis.TxFailedErr)
}

// normalize fills the derived ID and drops the read-time zone label
func normalize(record domain.ServiceRecord) domain.ServiceRecord {
	if record.ID == "" {
		record.ID = domain.ServiceID(record.Host, record.Binary)
	}
	record.ZoneLabel = ""
	return record
}

func score(t time.Time) float64 {
	return float64(t.UnixMicro())
}
