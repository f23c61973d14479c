package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix   = "user:%d"
	OutfitKeyPrefix = "outfit:%d"
	RevokedPrefix   = "blacklist:%s"
)

const (
	UserTTL   = 5 * time.Minute
	OutfitTTL = 10 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func OutfitKey(outfitID uint) string {
	return fmt.Sprintf(OutfitKeyPrefix, outfitID)
}

// RevokedKey is the marker key for a revoked session token id.
func RevokedKey(jti string) string {
	return fmt.Sprintf(RevokedPrefix, jti)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateOutfits(ctx context.Context, outfitIDs ...uint) {
	keys := make([]string, 0, len(outfitIDs))
	for _, id := range outfitIDs {
		keys = append(keys, OutfitKey(id))
	}
	Invalidate(ctx, keys...)
}
