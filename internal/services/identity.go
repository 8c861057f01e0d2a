package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/raidpulse/raidpulse-backend/internal/cache"
	"github.com/raidpulse/raidpulse-backend/internal/data/repos"
	types "github.com/raidpulse/raidpulse-backend/internal/domain"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/dbctx"
	"github.com/raidpulse/raidpulse-backend/internal/pkg/logger"
)

// LinkRequest describes one platform account to bind to a canonical identity.
type LinkRequest struct {
	Platform         string
	PlatformID       string
	PlatformUsername string
}

type IdentityService interface {
	// GetOrCreateUserIdentity resolves a (platform, platformID) pair to the
	// canonical identity, minting one on first contact. Caller-supplied
	// metadata is persisted on mint only. It never fails: a store outage
	// yields a temporary identity so upstream recording is never blocked.
	GetOrCreateUserIdentity(ctx context.Context, platform, platformID, platformUsername string, metadata map[string]any) *types.UserIdentity

	// LinkPlatformAccount binds another platform account to uuid. Returns
	// false when the pair is already bound to a different identity.
	LinkPlatformAccount(ctx context.Context, userUUID uuid.UUID, req LinkRequest) bool

	GetUserPlatformAccounts(ctx context.Context, userUUID uuid.UUID) []*types.PlatformAccount

	CacheSize() int
	PruneCache() int
}

type identityService struct {
	db    *gorm.DB // nil when running on the null store
	log   *logger.Logger
	clk   clock.Clock
	repos repos.All
	cache *cache.Cache[*types.UserIdentity]
}

const identityCacheTTL = time.Hour

func NewIdentityService(db *gorm.DB, log *logger.Logger, clk clock.Clock, r repos.All, maxCache int) IdentityService {
	return &identityService{
		db:    db,
		log:   log.With("service", "IdentityService"),
		clk:   clk,
		repos: r,
		cache: cache.New[*types.UserIdentity](maxCache,
			cache.WithTTL[*types.UserIdentity](identityCacheTTL),
			cache.WithClock[*types.UserIdentity](clk),
		),
	}
}

func identityCacheKey(platform, platformID string) string {
	return platform + ":" + platformID
}

func (s *identityService) GetOrCreateUserIdentity(ctx context.Context, platform, platformID, platformUsername string, metadata map[string]any) *types.UserIdentity {
	key := identityCacheKey(platform, platformID)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	identity, err := s.resolve(ctx, platform, platformID, platformUsername, metadata)
	if err != nil {
		s.log.Warn("identity resolution degraded to temporary identity",
			"platform", platform, "platform_id", platformID, "error", err)
		return s.temporaryIdentity(platform, platformUsername)
	}
	s.cache.Put(key, identity)
	return identity
}

func (s *identityService) resolve(ctx context.Context, platform, platformID, platformUsername string, metadata map[string]any) (*types.UserIdentity, error) {
	dbc := dbctx.New(ctx)
	now := s.clk.Now().UTC()

	acct, err := s.repos.PlatformAccount.GetByPlatformID(dbc, platform, platformID)
	if err != nil {
		return nil, fmt.Errorf("platform account lookup: %w", err)
	}

	if acct != nil {
		identity, err := s.repos.UserIdentity.GetByID(dbc, acct.UserUUID)
		if err != nil {
			return nil, fmt.Errorf("identity lookup: %w", err)
		}
		if identity == nil {
			// Orphaned account row: recreate the identity it points at.
			identity = &types.UserIdentity{
				ID:                acct.UserUUID,
				DisplayName:       platformUsername,
				PreferredPlatform: platform,
				Metadata:          metadataJSON(metadata),
				CreatedAt:         now,
				LastActiveAt:      now,
			}
			if err := s.repos.UserIdentity.Create(dbc, identity); err != nil {
				return nil, fmt.Errorf("identity recreate: %w", err)
			}
			return identity, nil
		}
		if identity.DisplayName == "" && platformUsername != "" {
			// Backfill names learned after the identity was first minted.
			if err := s.repos.UserIdentity.UpsertMetadata(dbc, identity.ID, platformUsername, ""); err != nil {
				s.log.Warn("display name backfill failed", "user_uuid", identity.ID, "error", err)
			} else {
				identity.DisplayName = platformUsername
			}
		}
		if err := s.repos.UserIdentity.TouchLastActive(dbc, identity.ID, now); err != nil {
			s.log.Warn("touch last_active failed", "user_uuid", identity.ID, "error", err)
		}
		identity.LastActiveAt = now
		return identity, nil
	}

	identity := &types.UserIdentity{
		ID:                uuid.New(),
		DisplayName:       platformUsername,
		PreferredPlatform: platform,
		Metadata:          metadataJSON(metadata),
		CreatedAt:         now,
		LastActiveAt:      now,
	}
	account := &types.PlatformAccount{
		ID:               uuid.New(),
		UserUUID:         identity.ID,
		Platform:         platform,
		PlatformID:       platformID,
		PlatformUsername: platformUsername,
		CreatedAt:        now,
	}

	create := func(dbc dbctx.Context) error {
		if err := s.repos.UserIdentity.Create(dbc, identity); err != nil {
			return fmt.Errorf("identity insert: %w", err)
		}
		if err := s.repos.PlatformAccount.Create(dbc, account); err != nil {
			return fmt.Errorf("platform account insert: %w", err)
		}
		return nil
	}

	if s.db != nil {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return create(dbctx.WithTx(ctx, tx))
		})
	} else {
		err = create(dbc)
	}
	if err != nil {
		return nil, err
	}
	return identity, nil
}

func metadataJSON(md map[string]any) datatypes.JSON {
	if len(md) == 0 {
		return nil
	}
	b, err := json.Marshal(md)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

// temporaryIdentity is the graceful-degradation path: a fresh uuid flagged
// temporary, never written anywhere and never merged later.
func (s *identityService) temporaryIdentity(platform, platformUsername string) *types.UserIdentity {
	now := s.clk.Now().UTC()
	return &types.UserIdentity{
		ID:                uuid.New(),
		DisplayName:       platformUsername,
		PreferredPlatform: platform,
		IsTemporary:       true,
		Metadata:          datatypes.JSON([]byte(`{"is_temporary":true}`)),
		CreatedAt:         now,
		LastActiveAt:      now,
	}
}

func (s *identityService) LinkPlatformAccount(ctx context.Context, userUUID uuid.UUID, req LinkRequest) bool {
	if userUUID == uuid.Nil || req.Platform == "" || req.PlatformID == "" {
		return false
	}
	dbc := dbctx.New(ctx)

	existing, err := s.repos.PlatformAccount.GetByPlatformID(dbc, req.Platform, req.PlatformID)
	if err != nil {
		s.log.Warn("link lookup failed", "platform", req.Platform, "platform_id", req.PlatformID, "error", err)
		return false
	}
	if existing != nil {
		// Hijack guard: the pair stays with its original owner forever.
		if existing.UserUUID != userUUID {
			s.log.Warn("rejected platform account link to different identity",
				"platform", req.Platform, "platform_id", req.PlatformID, "user_uuid", userUUID)
			return false
		}
		return true
	}

	account := &types.PlatformAccount{
		ID:               uuid.New(),
		UserUUID:         userUUID,
		Platform:         req.Platform,
		PlatformID:       req.PlatformID,
		PlatformUsername: req.PlatformUsername,
		CreatedAt:        s.clk.Now().UTC(),
	}
	if err := s.repos.PlatformAccount.Create(dbc, account); err != nil {
		s.log.Warn("link insert failed", "platform", req.Platform, "platform_id", req.PlatformID, "error", err)
		return false
	}
	// The next resolve for this pair repopulates the cache.
	s.cache.Delete(identityCacheKey(req.Platform, req.PlatformID))
	return true
}

func (s *identityService) GetUserPlatformAccounts(ctx context.Context, userUUID uuid.UUID) []*types.PlatformAccount {
	accounts, err := s.repos.PlatformAccount.GetByUser(dbctx.New(ctx), userUUID)
	if err != nil {
		s.log.Warn("platform accounts fetch failed", "user_uuid", userUUID, "error", err)
		return nil
	}
	return accounts
}

func (s *identityService) CacheSize() int  { return s.cache.Len() }
func (s *identityService) PruneCache() int { return s.cache.Prune() }
