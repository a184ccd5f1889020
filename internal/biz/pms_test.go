package biz

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"StayBridge/internal/model"
	"StayBridge/pkg/breaker"
	"StayBridge/pkg/cache"
	pkgerrors "StayBridge/pkg/errors"
	"StayBridge/pkg/monitor"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockPMSRepo is a mock implementation of PMSRepo for testing.
type MockPMSRepo struct {
	mock.Mock
}

func (m *MockPMSRepo) CheckAvailability(ctx context.Context, roomType, checkIn, checkOut string) (*model.Availability, error) {
	args := m.Called(ctx, roomType, checkIn, checkOut)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Availability), args.Error(1)
}

func (m *MockPMSRepo) GetReservation(ctx context.Context, id string) (*model.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *MockPMSRepo) CreateReservation(ctx context.Context, req *model.ReservationRequest) (*model.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *MockPMSRepo) UpdateReservation(ctx context.Context, id string, req *model.ReservationRequest) (*model.Reservation, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Reservation), args.Error(1)
}

func (m *MockPMSRepo) GetGuestFolio(ctx context.Context, guestID string) (*model.Folio, error) {
	args := m.Called(ctx, guestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folio), args.Error(1)
}

func (m *MockPMSRepo) AddFolioCharge(ctx context.Context, guestID string, charge *model.FolioCharge) (*model.Folio, error) {
	args := m.Called(ctx, guestID, charge)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Folio), args.Error(1)
}

func (m *MockPMSRepo) GetGuestProfile(ctx context.Context, guestID string) (*model.GuestProfile, error) {
	args := m.Called(ctx, guestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.GuestProfile), args.Error(1)
}

func (m *MockPMSRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// Helper function to create a test PMSUsecase with its own cache and
// breaker registry.
func newTestPMSUsecase(t *testing.T, repo PMSRepo) *PMSUsecase {
	t.Helper()
	logger := log.NewStdLogger(os.Stdout)
	respCache, err := cache.New[any](100, time.Minute)
	require.NoError(t, err)
	breakers := breaker.NewRegistry(breaker.DefaultConfig(), logger)
	mon := monitor.New(logger)
	return NewPMSUsecase(nil, repo, respCache, breakers, mon, logger)
}

func TestCheckAvailability_CacheMissThenHit(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	avail := &model.Availability{RoomType: "deluxe", Available: true, Rooms: 3, Rate: 199.0, Currency: "EUR"}
	mockRepo.On("CheckAvailability", ctx, "deluxe", "2026-10-01", "2026-10-03").
		Return(avail, nil).Once()

	// First call misses the cache and goes upstream.
	res := uc.CheckAvailability(ctx, "deluxe", "2026-10-01", "2026-10-03")
	require.True(t, res.Success)
	assert.False(t, res.Cached)
	assert.Equal(t, avail, res.Data)
	assert.Equal(t, "closed", res.BreakerState)

	// Second call is served from cache; the mock allows only one upstream call.
	res = uc.CheckAvailability(ctx, "deluxe", "2026-10-01", "2026-10-03")
	require.True(t, res.Success)
	assert.True(t, res.Cached)
	assert.Equal(t, avail, res.Data)

	mockRepo.AssertExpectations(t)
}

func TestCheckAvailability_DifferentArgsAreDifferentKeys(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("CheckAvailability", ctx, "deluxe", "2026-10-01", "2026-10-03").
		Return(&model.Availability{RoomType: "deluxe"}, nil).Once()
	mockRepo.On("CheckAvailability", ctx, "suite", "2026-10-01", "2026-10-03").
		Return(&model.Availability{RoomType: "suite"}, nil).Once()

	res := uc.CheckAvailability(ctx, "deluxe", "2026-10-01", "2026-10-03")
	assert.False(t, res.Cached)
	res = uc.CheckAvailability(ctx, "suite", "2026-10-01", "2026-10-03")
	assert.False(t, res.Cached)

	mockRepo.AssertExpectations(t)
}

func TestGetGuestFolio_UpstreamErrorEnvelope(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_guest_folio", 503, errors.New("service unavailable"))
	mockRepo.On("GetGuestFolio", ctx, "g-1").Return(nil, upErr)

	res := uc.GetGuestFolio(ctx, "g-1")
	require.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.True(t, res.Err.Retryable)
	assert.False(t, res.Cached)

	mockRepo.AssertExpectations(t)
}

func TestGetGuestFolio_NonRetryableStatus(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_guest_folio", 404, errors.New("not found"))
	mockRepo.On("GetGuestFolio", ctx, "missing").Return(nil, upErr)

	res := uc.GetGuestFolio(ctx, "missing")
	require.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.False(t, res.Err.Retryable)

	mockRepo.AssertExpectations(t)
}

func TestGetGuestFolio_ErrorNotCached(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_guest_folio", 500, errors.New("boom"))
	mockRepo.On("GetGuestFolio", ctx, "g-2").Return(nil, upErr).Once()
	mockRepo.On("GetGuestFolio", ctx, "g-2").
		Return(&model.Folio{GuestID: "g-2", Balance: 42}, nil).Once()

	res := uc.GetGuestFolio(ctx, "g-2")
	require.False(t, res.Success)

	// The failure was not cached; the next call goes upstream again.
	res = uc.GetGuestFolio(ctx, "g-2")
	require.True(t, res.Success)
	assert.False(t, res.Cached)
	assert.Equal(t, 42.0, res.Data.Balance)

	mockRepo.AssertExpectations(t)
}

func TestPMS_OpenBreakerRejection(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_guest_profile", 502, errors.New("bad gateway"))
	threshold := breaker.DefaultConfig().FailureThreshold
	mockRepo.On("GetGuestProfile", ctx, "g-3").Return(nil, upErr).Times(threshold)

	for i := 0; i < threshold; i++ {
		res := uc.GetGuestProfile(ctx, "g-3")
		require.False(t, res.Success)
	}

	// The breaker is now open: no upstream call is made, the rejection is
	// retryable, and the envelope reports the open state.
	res := uc.GetGuestProfile(ctx, "g-3")
	require.False(t, res.Success)
	require.NotNil(t, res.Err)
	assert.True(t, res.Err.Retryable)
	assert.Equal(t, "open", res.BreakerState)

	mockRepo.AssertExpectations(t)
}

func TestPMS_BreakersPerCapability(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_reservation", 500, errors.New("boom"))
	threshold := breaker.DefaultConfig().FailureThreshold
	mockRepo.On("GetReservation", ctx, "r-1").Return(nil, upErr).Times(threshold)
	mockRepo.On("GetGuestProfile", ctx, "g-4").
		Return(&model.GuestProfile{ID: "g-4"}, nil).Once()

	for i := 0; i < threshold; i++ {
		uc.GetReservation(ctx, "r-1")
	}

	// Reservation breaker is open; the profile capability still works.
	res := uc.GetGuestProfile(ctx, "g-4")
	require.True(t, res.Success)
	assert.Equal(t, "closed", res.BreakerState)

	statuses := uc.BreakerStatuses()
	assert.Equal(t, "open", statuses[brkReservation].State)

	mockRepo.AssertExpectations(t)
}

func TestCreateReservation_InvalidatesAvailability(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("CheckAvailability", ctx, "deluxe", "2026-10-01", "2026-10-03").
		Return(&model.Availability{RoomType: "deluxe", Rooms: 1}, nil).Twice()

	res := uc.CheckAvailability(ctx, "deluxe", "2026-10-01", "2026-10-03")
	require.True(t, res.Success)

	req := &model.ReservationRequest{GuestID: "g-5", RoomType: "deluxe", CheckIn: "2026-10-01", CheckOut: "2026-10-03", Adults: 2}
	created := &model.Reservation{ID: "r-9", GuestID: "g-5", RoomType: "deluxe"}
	mockRepo.On("CreateReservation", ctx, req).Return(created, nil).Once()

	cres := uc.CreateReservation(ctx, req)
	require.True(t, cres.Success)
	assert.Equal(t, "r-9", cres.Data.ID)

	// The availability entry was invalidated, so this goes upstream again
	// (hence Twice on the mock).
	res = uc.CheckAvailability(ctx, "deluxe", "2026-10-01", "2026-10-03")
	require.True(t, res.Success)
	assert.False(t, res.Cached)

	// The created reservation was cached.
	rres := uc.GetReservation(ctx, "r-9")
	require.True(t, rres.Success)
	assert.True(t, rres.Cached)

	mockRepo.AssertExpectations(t)
}

func TestAddFolioCharge_RefreshesFolioCache(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	charge := &model.FolioCharge{Description: "minibar", Amount: 12.5, Currency: "EUR"}
	fresh := &model.Folio{GuestID: "g-6", Balance: 112.5, Charges: []model.FolioCharge{*charge}}
	mockRepo.On("AddFolioCharge", ctx, "g-6", charge).Return(fresh, nil).Once()

	res := uc.AddFolioCharge(ctx, "g-6", charge)
	require.True(t, res.Success)

	// The write refreshed the folio cache with the returned value; the read
	// is a hit without any GetGuestFolio expectation on the mock.
	fres := uc.GetGuestFolio(ctx, "g-6")
	require.True(t, fres.Success)
	assert.True(t, fres.Cached)
	assert.Equal(t, 112.5, fres.Data.Balance)

	mockRepo.AssertExpectations(t)
}

func TestHealthCheck(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	mockRepo.On("Ping", ctx).Return(nil).Once()
	res := uc.HealthCheck(ctx)
	require.True(t, res.Success)
	assert.True(t, res.Data)
	assert.Equal(t, "closed", res.BreakerState)

	mockRepo.On("Ping", ctx).Return(errors.New("connection refused")).Once()
	res = uc.HealthCheck(ctx)
	require.False(t, res.Success)
	require.NotNil(t, res.Err)

	mockRepo.AssertExpectations(t)
}

func TestResetBreaker(t *testing.T) {
	mockRepo := new(MockPMSRepo)
	uc := newTestPMSUsecase(t, mockRepo)
	ctx := context.Background()

	upErr := pkgerrors.NewUpstreamStatusError("pms", "get_guest_profile", 500, errors.New("boom"))
	threshold := breaker.DefaultConfig().FailureThreshold
	mockRepo.On("GetGuestProfile", ctx, "g-7").Return(nil, upErr).Times(threshold)

	for i := 0; i < threshold; i++ {
		uc.GetGuestProfile(ctx, "g-7")
	}
	assert.Equal(t, "open", uc.BreakerStatuses()[brkProfile].State)

	assert.True(t, uc.ResetBreaker(brkProfile))
	assert.Equal(t, "closed", uc.BreakerStatuses()[brkProfile].State)

	assert.False(t, uc.ResetBreaker("no.such.breaker"))

	mockRepo.AssertExpectations(t)
}
