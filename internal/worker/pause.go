package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const pausedSetKey = "cronspan_paused"

type PauseChecker interface {
	IsPaused(ctx context.Context, scheduleID string) (bool, error)
}

type PauseAdder interface {
	Pause(ctx context.Context, scheduleID string) error
	Resume(ctx context.Context, scheduleID string) error
}

// RedisPauseSet keeps paused schedule IDs in a Redis set shared by every
// worker.
type RedisPauseSet struct {
	client *redis.Client
}

func NewRedisPauseSet(client *redis.Client) *RedisPauseSet {
	return &RedisPauseSet{client: client}
}

func (p *RedisPauseSet) IsPaused(ctx context.Context, scheduleID string) (bool, error) {
	paused, err := p.client.SIsMember(ctx, pausedSetKey, scheduleID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check whether schedule %s is paused: %w", scheduleID, err)
	}
	return paused, nil
}

func (p *RedisPauseSet) Pause(ctx context.Context, scheduleID string) error {
	if err := p.client.SAdd(ctx, pausedSetKey, scheduleID).Err(); err != nil {
		return fmt.Errorf("failed to pause schedule %s: %w", scheduleID, err)
	}
	return nil
}

func (p *RedisPauseSet) Resume(ctx context.Context, scheduleID string) error {
	if err := p.client.SRem(ctx, pausedSetKey, scheduleID).Err(); err != nil {
		return fmt.Errorf("failed to resume schedule %s: %w", scheduleID, err)
	}
	return nil
}

var (
	_ PauseChecker = (*RedisPauseSet)(nil)
	_ PauseAdder   = (*RedisPauseSet)(nil)
)

type MemoryPauseSet struct {
	mu     sync.RWMutex
	paused map[string]struct{}
}

func NewMemoryPauseSet() *MemoryPauseSet {
	return &MemoryPauseSet{
		paused: make(map[string]struct{}),
	}
}

func (p *MemoryPauseSet) IsPaused(ctx context.Context, scheduleID string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.paused[scheduleID]
	return ok, nil
}

func (p *MemoryPauseSet) Pause(ctx context.Context, scheduleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused[scheduleID] = struct{}{}
	return nil
}

func (p *MemoryPauseSet) Resume(ctx context.Context, scheduleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.paused, scheduleID)
	return nil
}

var (
	_ PauseChecker = (*MemoryPauseSet)(nil)
	_ PauseAdder   = (*MemoryPauseSet)(nil)
)
