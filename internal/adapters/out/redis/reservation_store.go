// Package redis implements the reservation store on Redis. A reservation is a
// single key with a TTL: SETNX gives the atomic only-one-buyer guarantee and
// expiry releases abandoned checkouts without a sweeper.
package redis

import (
	"context"
	"errors"
	"time"

	"marketplace/internal/core/domain/model/kernel"

	"github.com/redis/go-redis/v9"
)

const reservationKeyPrefix = "reservation:item:"

// ReservationStore holds item reservations in Redis.
// The key value is the reserving buyer's ID so a lost payment webhook can
// still be traced back to who held the item.
type ReservationStore struct {
	client *redis.Client
}

// NewReservationStore creates a reservation store backed by the given client.
func NewReservationStore(client *redis.Client) *ReservationStore {
	return &ReservationStore{client: client}
}

// Reserve atomically claims the item for the buyer for the given TTL.
// Returns false when another buyer already holds the reservation.
func (s *ReservationStore) Reserve(
	ctx context.Context,
	itemID, buyerID kernel.UUID,
	ttl time.Duration,
) (bool, error) {
	return s.client.SetNX(ctx, reservationKeyPrefix+itemID.String(), buyerID.String(), ttl).Result()
}

// Release drops the reservation for the item. Releasing an expired or missing
// reservation is not an error.
func (s *ReservationStore) Release(ctx context.Context, itemID kernel.UUID) error {
	return s.client.Del(ctx, reservationKeyPrefix+itemID.String()).Err()
}

// ReservedBy returns the buyer currently holding the item, if any.
func (s *ReservationStore) ReservedBy(ctx context.Context, itemID kernel.UUID) (kernel.UUID, bool, error) {
	val, err := s.client.Get(ctx, reservationKeyPrefix+itemID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return kernel.UUID{}, false, nil
	}
	if err != nil {
		return kernel.UUID{}, false, err
	}

	buyerID, err := kernel.UUIDFromString(val)
	if err != nil {
		return kernel.UUID{}, false, err
	}
	return buyerID, true, nil
}
