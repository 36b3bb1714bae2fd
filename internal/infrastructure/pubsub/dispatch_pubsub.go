package pubsub

import (
	"context"
	"fmt"
	"sync"

	"shopify-mirror-layer/internal/domain"

	"github.com/rs/zerolog"
)

// DispatchChannel is one subscription to dispatch results.
type DispatchChannel struct {
	ID      string
	Filter  *DispatchFilter
	Results chan domain.DispatchResult
	ctx     context.Context
	cancel  context.CancelFunc
}

// DispatchFilter narrows a subscription.
type DispatchFilter struct {
	Topics []string
	Shop   string
}

// DispatchPubSub broadcasts webhook dispatch results to in-process
// subscribers. The dispatcher swallows handler errors at the transport
// boundary, so this sink is where tests and audit tooling observe them.
type DispatchPubSub struct {
	mu       sync.RWMutex
	channels map[string]*DispatchChannel
	logger   zerolog.Logger
	nextID   int64
}

// NewDispatchPubSub creates a dispatch result pub/sub.
func NewDispatchPubSub(logger zerolog.Logger) *DispatchPubSub {
	return &DispatchPubSub{
		channels: make(map[string]*DispatchChannel),
		logger:   logger,
	}
}

// Subscribe creates a subscription; it is removed when ctx is cancelled.
func (ps *DispatchPubSub) Subscribe(ctx context.Context, filter *DispatchFilter) *DispatchChannel {
	subCtx, cancel := context.WithCancel(ctx)

	ps.mu.Lock()
	ps.nextID++
	channel := &DispatchChannel{
		ID:      fmt.Sprintf("channel-%d", ps.nextID),
		Filter:  filter,
		Results: make(chan domain.DispatchResult, 16),
		ctx:     subCtx,
		cancel:  cancel,
	}
	ps.channels[channel.ID] = channel
	ps.mu.Unlock()

	go func() {
		<-subCtx.Done()
		ps.Unsubscribe(channel.ID)
	}()

	return channel
}

// Unsubscribe removes a subscription.
func (ps *DispatchPubSub) Unsubscribe(channelID string) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	channel, exists := ps.channels[channelID]
	if !exists {
		return
	}
	close(channel.Results)
	channel.cancel()
	delete(ps.channels, channelID)
}

// Publish broadcasts a dispatch result to all matching subscribers.
// Non-blocking: a subscriber with a full buffer misses the result.
func (ps *DispatchPubSub) Publish(result domain.DispatchResult) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	for _, channel := range ps.channels {
		if !matchesFilter(result, channel.Filter) {
			continue
		}
		select {
		case channel.Results <- result:
		case <-channel.ctx.Done():
		default:
			ps.logger.Warn().
				Str("channelId", channel.ID).
				Str("topic", result.Topic).
				Msg("Subscriber buffer full, dropping dispatch result")
		}
	}
}

func matchesFilter(result domain.DispatchResult, filter *DispatchFilter) bool {
	if filter == nil {
		return true
	}
	if len(filter.Topics) > 0 {
		match := false
		for _, topic := range filter.Topics {
			if result.Topic == topic {
				match = true
				break
			}
		}
		if !match {
			return false
		}
	}
	if filter.Shop != "" && result.Shop != filter.Shop {
		return false
	}
	return true
}
