package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/zonewatch/internal/domain"
)

// ReplaceAggregates swaps the whole aggregate set atomically
func (s *Store) ReplaceAggregates(ctx context.Context, aggregates []domain.Aggregate) error {
	previous, err := s.client.ZRange(ctx, AggregatesIndexKey(), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to get aggregate names: %w", err)
	}

	payloads := make([][]byte, len(aggregates))
	for i, agg := range aggregates {
		data, err := json.Marshal(agg)
		if err != nil {
			return fmt.Errorf("failed to marshal aggregate %s: %w", agg.Name, err)
		}
		payloads[i] = data
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range previous {
			pipe.Del(ctx, AggregateKey(name))
		}
		pipe.Del(ctx, AggregatesIndexKey())
		for i, agg := range aggregates {
			pipe.Set(ctx, AggregateKey(agg.Name), payloads[i], 0)
			pipe.ZAdd(ctx, AggregatesIndexKey(), redis.Z{Score: float64(i), Member: agg.Name})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace aggregates: %w", err)
	}

	return nil
}

// ListAggregates returns every aggregate in load order
func (s *Store) ListAggregates(ctx context.Context) ([]domain.Aggregate, error) {
	names, err := s.client.ZRange(ctx, AggregatesIndexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregate names: %w", err)
	}

	if len(names) == 0 {
		return []domain.Aggregate{}, nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = AggregateKey(name)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get aggregates: %w", err)
	}

	aggregates := make([]domain.Aggregate, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var agg domain.Aggregate
		if err := json.Unmarshal([]byte(raw), &agg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal aggregate %s: %w", names[i], err)
		}
		aggregates = append(aggregates, agg)
	}

	return aggregates, nil
}
