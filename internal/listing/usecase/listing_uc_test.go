package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
)

func newListingUC(repo *MockListingRepository, cache ListingCache, events EventPublisher, mailer Mailer) *ListingUsecase {
	log := logger.NewNop()
	return NewListingUsecase(repo, nil, NewOwnershipGuard(repo, log), cache, events, mailer, log)
}

func ptr[T any](v T) *T { return &v }

func TestListingUsecase_CreateListing(t *testing.T) {
	repo := new(MockListingRepository)
	events := new(MockEventPublisher)
	mailer := new(MockMailer)

	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Listing")).Return(nil)
	events.On("Publish", mock.Anything, SubjectListingCreated, mock.AnythingOfType("usecase.ListingEvent")).Return(nil)
	mailer.On("SendListingCreatedEmail", "alice@example.com", "Road bike").Return(errors.New("smtp down"))

	uc := newListingUC(repo, nil, events, mailer)
	listing, err := uc.CreateListing(context.Background(),
		domain.Identity{UserID: "alice", Email: "alice@example.com"},
		domain.Listing{Title: "  Road bike ", Price: 450, UserID: "mallory", ImageCount: 7, LocalityName: "Fitzroy"})

	require.NoError(t, err)
	assert.NotEmpty(t, listing.ID)
	assert.Equal(t, "alice", listing.UserID)
	assert.Equal(t, "Road bike", listing.Title)
	assert.Equal(t, "Fitzroy", listing.LocalityName)
	assert.True(t, listing.IsActive)
	assert.Zero(t, listing.ImageCount)
	assert.EqualValues(t, 1, listing.Version)
	repo.AssertExpectations(t)
	events.AssertExpectations(t)
	mailer.AssertExpectations(t)
}

func TestListingUsecase_CreateListing_Invalid(t *testing.T) {
	repo := new(MockListingRepository)
	uc := newListingUC(repo, nil, nil, nil)
	owner := domain.Identity{UserID: "alice"}

	for name, draft := range map[string]domain.Listing{
		"blank title":    {Title: "   ", Price: 1},
		"negative price": {Title: "Bike", Price: -1},
		"bad latitude":   {Title: "Bike", LocationLat: ptr(91.0)},
		"bad longitude":  {Title: "Bike", LocationLng: ptr(-181.0)},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.CreateListing(context.Background(), owner, draft)
			assert.ErrorIs(t, err, domain.ErrInvalidListingData)
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestListingUsecase_CreateListing_StoreFailure(t *testing.T) {
	repo := new(MockListingRepository)
	boom := errors.New("duplicate key")
	repo.On("Create", mock.Anything, mock.Anything).Return(boom)

	_, err := newListingUC(repo, nil, nil, nil).CreateListing(context.Background(), domain.Identity{UserID: "alice"}, domain.Listing{Title: "Bike"})
	assert.ErrorIs(t, err, boom)
}

func TestListingUsecase_GetListing(t *testing.T) {
	ctx := context.Background()

	t.Run("cache hit", func(t *testing.T) {
		repo := new(MockListingRepository)
		cache := new(MockListingCache)
		cache.On("GetListing", mock.Anything, "L1").Return(sampleListing("L1", "alice", 2), nil)

		listing, err := newListingUC(repo, cache, nil, nil).GetListing(ctx, "L1")
		require.NoError(t, err)
		assert.Equal(t, 2, listing.ImageCount)
		repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("cache miss fills cache", func(t *testing.T) {
		repo := new(MockListingRepository)
		cache := new(MockListingCache)
		stored := sampleListing("L1", "alice", 1)
		cache.On("GetListing", mock.Anything, "L1").Return(nil, nil)
		repo.On("FindByID", mock.Anything, "L1").Return(stored, nil)
		cache.On("SetListing", mock.Anything, stored).Return(nil)

		listing, err := newListingUC(repo, cache, nil, nil).GetListing(ctx, "L1")
		require.NoError(t, err)
		assert.Same(t, stored, listing)
		cache.AssertExpectations(t)
	})

	t.Run("inactive is not found", func(t *testing.T) {
		repo := new(MockListingRepository)
		inactive := sampleListing("L1", "alice", 0)
		inactive.IsActive = false
		repo.On("FindByID", mock.Anything, "L1").Return(inactive, nil)

		_, err := newListingUC(repo, nil, nil, nil).GetListing(ctx, "L1")
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})

	t.Run("missing", func(t *testing.T) {
		repo := new(MockListingRepository)
		repo.On("FindByID", mock.Anything, "L1").Return(nil, domain.ErrListingNotFound)

		_, err := newListingUC(repo, nil, nil, nil).GetListing(ctx, "L1")
		assert.ErrorIs(t, err, domain.ErrListingNotFound)
	})
}

func TestListingUsecase_SearchListings(t *testing.T) {
	repo := new(MockListingRepository)
	want := []*domain.Listing{sampleListing("L2", "bob", 0), sampleListing("L1", "alice", 1)}
	repo.On("FindByFilter", mock.Anything, mock.MatchedBy(func(f domain.Filter) bool {
		return f.ActiveOnly && f.UserID == "" && f.Query == "bike" && *f.MinPrice == 10 && f.MaxPrice == nil
	})).Return(want, nil)

	got, err := newListingUC(repo, nil, nil, nil).SearchListings(context.Background(),
		domain.Filter{Query: " bike ", MinPrice: ptr(10.0), UserID: "ignored"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestListingUsecase_SearchListings_InvalidBounds(t *testing.T) {
	repo := new(MockListingRepository)

	_, err := newListingUC(repo, nil, nil, nil).SearchListings(context.Background(),
		domain.Filter{MinPrice: ptr(100.0), MaxPrice: ptr(10.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidFilter)
	repo.AssertNotCalled(t, "FindByFilter", mock.Anything, mock.Anything)
}

func TestListingUsecase_ListUserListings(t *testing.T) {
	repo := new(MockListingRepository)
	repo.On("FindByFilter", mock.Anything, domain.Filter{UserID: "alice"}).Return([]*domain.Listing{}, nil)

	got, err := newListingUC(repo, nil, nil, nil).ListUserListings(context.Background(), "alice")
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertExpectations(t)
}

func TestListingUsecase_UpdateListing(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	events := new(MockEventPublisher)

	repo.On("FindByID", mock.Anything, "L1").Return(sampleListing("L1", "alice", 2), nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return l.Title == "Gravel bike" && l.Price == 450 && l.ImageCount == 2 && l.Version == 3
	})).Return(nil)
	cache.On("DeleteListing", mock.Anything, "L1").Return(nil)
	events.On("Publish", mock.Anything, SubjectListingUpdated, mock.Anything).Return(nil)

	listing, err := newListingUC(repo, cache, events, nil).UpdateListing(context.Background(), "L1", "alice",
		domain.ListingPatch{Title: ptr("Gravel bike")})
	require.NoError(t, err)
	assert.Equal(t, "Gravel bike", listing.Title)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestListingUsecase_UpdateListing_NotOwner(t *testing.T) {
	repo := new(MockListingRepository)
	repo.On("FindByID", mock.Anything, "L1").Return(sampleListing("L1", "alice", 0), nil)

	_, err := newListingUC(repo, nil, nil, nil).UpdateListing(context.Background(), "L1", "mallory",
		domain.ListingPatch{Title: ptr("Mine now")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListingUsecase_UpdateListing_VersionConflict(t *testing.T) {
	repo := new(MockListingRepository)
	cache := new(MockListingCache)
	repo.On("FindByID", mock.Anything, "L1").Return(sampleListing("L1", "alice", 0), nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(domain.ErrVersionConflict)

	_, err := newListingUC(repo, cache, nil, nil).UpdateListing(context.Background(), "L1", "alice",
		domain.ListingPatch{Price: ptr(1.0)})
	assert.ErrorIs(t, err, domain.ErrVersionConflict)
	cache.AssertNotCalled(t, "DeleteListing", mock.Anything, mock.Anything)
}

func TestListingUsecase_DeleteListing(t *testing.T) {
	repo := new(MockListingRepository)
	events := new(MockEventPublisher)

	repo.On("FindByID", mock.Anything, "L1").Return(sampleListing("L1", "alice", 2), nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(l *domain.Listing) bool {
		return !l.IsActive && l.ImageCount == 2
	})).Return(nil)
	events.On("Publish", mock.Anything, SubjectListingDeleted, mock.Anything).Return(errors.New("nats down"))

	err := newListingUC(repo, nil, events, nil).DeleteListing(context.Background(), "L1", "alice")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestListingUsecase_DeleteListing_NotOwner(t *testing.T) {
	repo := new(MockListingRepository)
	repo.On("FindByID", mock.Anything, "L1").Return(sampleListing("L1", "alice", 0), nil)

	err := newListingUC(repo, nil, nil, nil).DeleteListing(context.Background(), "L1", "bob")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestListingUsecase_OwnerProfiles(t *testing.T) {
	repo := new(MockListingRepository)
	profiles := new(MockProfileRepository)
	log := logger.NewNop()
	uc := NewListingUsecase(repo, profiles, NewOwnershipGuard(repo, log), nil, nil, nil, log)

	alice := &domain.Profile{UserID: "alice", DisplayName: "Alice P"}
	profiles.On("FindByUserIDs", mock.Anything, []string{"alice", "bob"}).
		Return(map[string]*domain.Profile{"alice": alice}, nil).Once()

	got := uc.OwnerProfiles(context.Background(),
		sampleListing("L1", "alice", 0), sampleListing("L2", "bob", 0), sampleListing("L3", "alice", 0))
	assert.Equal(t, map[string]*domain.Profile{"alice": alice}, got)
	profiles.AssertExpectations(t)

	assert.Nil(t, uc.OwnerProfiles(context.Background()))
}

func TestListingUsecase_OwnerProfiles_LookupFailure(t *testing.T) {
	repo := new(MockListingRepository)
	profiles := new(MockProfileRepository)
	log := logger.NewNop()
	uc := NewListingUsecase(repo, profiles, NewOwnershipGuard(repo, log), nil, nil, nil, log)
	profiles.On("FindByUserIDs", mock.Anything, []string{"alice"}).Return(nil, errors.New("connection reset"))

	assert.Nil(t, uc.OwnerProfiles(context.Background(), sampleListing("L1", "alice", 0)))
}

func TestListingUsecase_OwnerProfiles_Disabled(t *testing.T) {
	uc := newListingUC(new(MockListingRepository), nil, nil, nil)
	assert.Nil(t, uc.OwnerProfiles(context.Background(), sampleListing("L1", "alice", 0)))
}
