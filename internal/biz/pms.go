package biz

import (
	"context"
	"fmt"
	"time"

	"StayBridge/internal/conf"
	"StayBridge/internal/model"
	"StayBridge/pkg/breaker"
	"StayBridge/pkg/cache"
	xlog "StayBridge/pkg/log"
	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
)

// Per-operation cache TTLs. Folios and availability change with every
// booking, guest profiles are near-static.
const (
	availabilityTTL = time.Minute
	reservationTTL  = 5 * time.Minute
	folioTTL        = time.Minute
	profileTTL      = 30 * time.Minute
)

// Breaker names, one per PMS capability so a failing endpoint does not
// trip the others.
const (
	brkAvailability      = "pms.availability"
	brkReservation       = "pms.reservation"
	brkReservationCreate = "pms.reservation.create"
	brkReservationUpdate = "pms.reservation.update"
	brkFolio             = "pms.folio"
	brkFolioCharge       = "pms.folio.charge"
	brkProfile           = "pms.profile"
	brkHealth            = "pms.health"
)

// PMSUsecase is the resilient client for the upstream Property Management
// System. Reads are cache-aside, every call runs under a named circuit
// breaker and operation monitoring, and results are returned in a uniform
// envelope instead of raised errors.
type PMSUsecase struct {
	repo          PMSRepo
	cache         *cache.Cache[any]
	breakers      *breaker.Registry
	mon           *monitor.Monitor
	healthTimeout time.Duration
	logger        *xlog.LogHelper
}

// NewPMSUsecase creates a new PMS usecase.
func NewPMSUsecase(c *conf.PMS, repo PMSRepo, respCache *cache.Cache[any], breakers *breaker.Registry, mon *monitor.Monitor, logger log.Logger) *PMSUsecase {
	healthTimeout := 3 * time.Second
	if c != nil && c.HealthTimeout > 0 {
		healthTimeout = c.HealthTimeout
	}
	return &PMSUsecase{
		repo:          repo,
		cache:         respCache,
		breakers:      breakers,
		mon:           mon,
		healthTimeout: healthTimeout,
		logger:        xlog.NewLogHelper(logger),
	}
}

// CheckAvailability queries room availability, cached for a minute.
func (uc *PMSUsecase) CheckAvailability(ctx context.Context, roomType, checkIn, checkOut string) *model.Result[*model.Availability] {
	return pmsRead(ctx, uc, brkAvailability, "check_availability",
		availabilityKey(roomType, checkIn, checkOut), availabilityTTL,
		map[string]any{"room_type": roomType, "check_in": checkIn, "check_out": checkOut},
		func(ctx context.Context) (*model.Availability, error) {
			return uc.repo.CheckAvailability(ctx, roomType, checkIn, checkOut)
		})
}

// GetReservation fetches a reservation by id, cached for five minutes.
func (uc *PMSUsecase) GetReservation(ctx context.Context, id string) *model.Result[*model.Reservation] {
	return pmsRead(ctx, uc, brkReservation, "get_reservation",
		reservationKey(id), reservationTTL,
		map[string]any{"reservation_id": id},
		func(ctx context.Context) (*model.Reservation, error) {
			return uc.repo.GetReservation(ctx, id)
		})
}

// GetGuestFolio fetches the guest's folio, cached briefly since charges
// post continuously during a stay.
func (uc *PMSUsecase) GetGuestFolio(ctx context.Context, guestID string) *model.Result[*model.Folio] {
	return pmsRead(ctx, uc, brkFolio, "get_guest_folio",
		folioKey(guestID), folioTTL,
		map[string]any{"guest_id": guestID},
		func(ctx context.Context) (*model.Folio, error) {
			return uc.repo.GetGuestFolio(ctx, guestID)
		})
}

// GetGuestProfile fetches the guest's profile, cached for half an hour.
func (uc *PMSUsecase) GetGuestProfile(ctx context.Context, guestID string) *model.Result[*model.GuestProfile] {
	return pmsRead(ctx, uc, brkProfile, "get_guest_profile",
		profileKey(guestID), profileTTL,
		map[string]any{"guest_id": guestID},
		func(ctx context.Context) (*model.GuestProfile, error) {
			return uc.repo.GetGuestProfile(ctx, guestID)
		})
}

// CreateReservation books a reservation. On success the availability cache
// entry for the booked room/date range is invalidated and the new
// reservation is cached.
func (uc *PMSUsecase) CreateReservation(ctx context.Context, req *model.ReservationRequest) *model.Result[*model.Reservation] {
	res := pmsWrite(ctx, uc, brkReservationCreate, "create_reservation",
		map[string]any{"guest_id": req.GuestID, "room_type": req.RoomType},
		func(ctx context.Context) (*model.Reservation, error) {
			return uc.repo.CreateReservation(ctx, req)
		})
	if res.Success {
		uc.cache.Del(availabilityKey(req.RoomType, req.CheckIn, req.CheckOut))
		uc.cache.Set(reservationKey(res.Data.ID), res.Data, reservationTTL)
	}
	return res
}

// UpdateReservation applies a partial update. The cached reservation is
// replaced with the fresh value and the affected availability entry dropped.
func (uc *PMSUsecase) UpdateReservation(ctx context.Context, id string, req *model.ReservationRequest) *model.Result[*model.Reservation] {
	res := pmsWrite(ctx, uc, brkReservationUpdate, "update_reservation",
		map[string]any{"reservation_id": id},
		func(ctx context.Context) (*model.Reservation, error) {
			return uc.repo.UpdateReservation(ctx, id, req)
		})
	if res.Success {
		uc.cache.Del(availabilityKey(req.RoomType, req.CheckIn, req.CheckOut))
		uc.cache.Set(reservationKey(id), res.Data, reservationTTL)
	}
	return res
}

// AddFolioCharge posts a charge. The folio cache entry is updated to the
// fresh folio returned by the PMS rather than invalidated.
func (uc *PMSUsecase) AddFolioCharge(ctx context.Context, guestID string, charge *model.FolioCharge) *model.Result[*model.Folio] {
	res := pmsWrite(ctx, uc, brkFolioCharge, "add_folio_charge",
		map[string]any{"guest_id": guestID, "amount": charge.Amount},
		func(ctx context.Context) (*model.Folio, error) {
			return uc.repo.AddFolioCharge(ctx, guestID, charge)
		})
	if res.Success {
		uc.cache.Set(folioKey(guestID), res.Data, folioTTL)
	}
	return res
}

// HealthCheck probes the PMS health endpoint under its own breaker, with a
// tighter timeout than regular calls.
func (uc *PMSUsecase) HealthCheck(ctx context.Context) *model.Result[bool] {
	opID := uc.mon.StartOperation("pms", "health_check", nil)
	b := uc.breakers.GetOrCreate(brkHealth)
	err := b.Do(ctx, uc.repo.Ping, uc.healthTimeout)
	elapsed := uc.mon.EndOperation(opID, err == nil, err)

	res := &model.Result[bool]{
		ResponseTime: elapsed,
		BreakerState: b.State().String(),
	}
	if err != nil {
		res.Err = model.NewResultError(err)
		return res
	}
	res.Success = true
	res.Data = true
	return res
}

// BreakerStatuses exposes the registry state for the ops surface.
func (uc *PMSUsecase) BreakerStatuses() map[string]breaker.Status {
	return uc.breakers.Statuses()
}

// ResetBreaker forces the named breaker back to closed. Returns false when
// no breaker with that name exists.
func (uc *PMSUsecase) ResetBreaker(name string) bool {
	ok := uc.breakers.Reset(name)
	if ok {
		uc.logger.Breaker("breaker reset", "breaker", name)
	}
	return ok
}

// CacheStats exposes the response cache counters for the ops surface.
func (uc *PMSUsecase) CacheStats() cache.Stats {
	return uc.cache.Stats()
}

// pmsRead runs a cache-aside read: cache hit short-circuits, miss goes
// upstream through the named breaker and populates the cache with the
// operation TTL.
func pmsRead[T any](ctx context.Context, uc *PMSUsecase, brkName, operation, key string, ttl time.Duration, fields map[string]any, fetch func(context.Context) (T, error)) *model.Result[T] {
	opID := uc.mon.StartOperation("pms", operation, fields)
	b := uc.breakers.GetOrCreate(brkName)

	if v, ok := uc.cache.Get(key); ok {
		if data, ok := v.(T); ok {
			uc.mon.EndOperation(opID, true, nil, "cached", true)
			uc.logger.Cache("cache hit", "key", key, "operation", operation)
			return &model.Result[T]{
				Success:      true,
				Data:         data,
				Cached:       true,
				BreakerState: b.State().String(),
			}
		}
		// Entry holds a stale type after a deploy; treat as a miss.
		uc.cache.Del(key)
	}

	data, err := breaker.Run(ctx, b, fetch)
	elapsed := uc.mon.EndOperation(opID, err == nil, err)

	res := &model.Result[T]{
		ResponseTime: elapsed,
		BreakerState: b.State().String(),
	}
	if err != nil {
		uc.logger.UpstreamWithContext(ctx, "pms", operation, "pms call failed", "error", err.Error())
		res.Err = model.NewResultError(err)
		return res
	}
	res.Success = true
	res.Data = data
	uc.cache.Set(key, data, ttl)
	return res
}

// pmsWrite runs a mutating call through the named breaker, bypassing the
// cache. Callers apply their own invalidation on success.
func pmsWrite[T any](ctx context.Context, uc *PMSUsecase, brkName, operation string, fields map[string]any, call func(context.Context) (T, error)) *model.Result[T] {
	opID := uc.mon.StartOperation("pms", operation, fields)
	b := uc.breakers.GetOrCreate(brkName)

	data, err := breaker.Run(ctx, b, call)
	elapsed := uc.mon.EndOperation(opID, err == nil, err)

	res := &model.Result[T]{
		ResponseTime: elapsed,
		BreakerState: b.State().String(),
	}
	if err != nil {
		uc.logger.UpstreamWithContext(ctx, "pms", operation, "pms call failed", "error", err.Error())
		res.Err = model.NewResultError(err)
		return res
	}
	res.Success = true
	res.Data = data
	return res
}

func availabilityKey(roomType, checkIn, checkOut string) string {
	return fmt.Sprintf("pms:availability:%s:%s:%s", roomType, checkIn, checkOut)
}

func reservationKey(id string) string {
	return fmt.Sprintf("pms:reservation:%s", id)
}

func folioKey(guestID string) string {
	return fmt.Sprintf("pms:folio:%s", guestID)
}

func profileKey(guestID string) string {
	return fmt.Sprintf("pms:profile:%s", guestID)
}
