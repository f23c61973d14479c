package repository

import (
	"context"
	"errors"
	"strings"

	"sharefit/internal/cache"
	"sharefit/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OutfitRepository defines persistence operations for outfits.
type OutfitRepository interface {
	Create(ctx context.Context, outfit *models.Outfit) error
	GetByID(ctx context.Context, id uint) (*models.Outfit, error)
	Search(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error)
	ListByPoster(ctx context.Context, posterID uint, limit int) ([]models.Outfit, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.Outfit, error)
	// VotesFor returns voterID's vote on each id with a single query. Ids
	// that do not exist map to 0.
	VotesFor(ctx context.Context, ids []uint, voterID uint) (map[uint]int, error)
	// Mutate loads the outfit under a row lock, applies fn and saves the
	// full document in the same transaction. An error from fn aborts the
	// write and is returned unchanged.
	Mutate(ctx context.Context, id uint, fn func(*models.Outfit) error) (*models.Outfit, error)
	// RenamePoster rewrites the denormalized poster identity on every outfit
	// posted by posterID and returns how many rows changed.
	RenamePoster(ctx context.Context, posterID uint, username, avatar string) (int64, error)
	// CommentedOutfitIDs lists outfits userID has commented on.
	CommentedOutfitIDs(ctx context.Context, userID uint) ([]uint, error)
}

type outfitRepository struct {
	db *gorm.DB
}

// NewOutfitRepository returns a new OutfitRepository implementation.
func NewOutfitRepository(db *gorm.DB) OutfitRepository {
	return &outfitRepository{db: db}
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > models.MaxListResults {
		return models.MaxListResults
	}
	return limit
}

// escapeLike escapes LIKE wildcards so user terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *outfitRepository) Create(ctx context.Context, outfit *models.Outfit) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(outfit).Error; err != nil {
			return err
		}
		if rows := outfit.TagIndex(); len(rows) > 0 {
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *outfitRepository) GetByID(ctx context.Context, id uint) (*models.Outfit, error) {
	var outfit models.Outfit
	key := cache.OutfitKey(id)

	err := cache.Aside(ctx, key, &outfit, cache.OutfitTTL, func() error {
		if err := r.db.WithContext(ctx).First(&outfit, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Outfit", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &outfit, nil
}

func (r *outfitRepository) Search(ctx context.Context, filter models.OutfitFilter) ([]models.Outfit, error) {
	query := r.db.WithContext(ctx).Model(&models.Outfit{})

	if terms := strings.Fields(strings.ToLower(filter.Query)); len(terms) > 0 {
		conds := make([]string, 0, len(terms))
		args := make([]any, 0, len(terms))
		for _, term := range terms {
			conds = append(conds, `LOWER(title) LIKE ? ESCAPE '\'`)
			args = append(args, "%"+escapeLike(term)+"%")
		}
		query = query.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		tagged := r.db.Model(&models.OutfitTag{}).Select("outfit_id").Where("tag = ?", tag)
		query = query.Where("id IN (?)", tagged)
	}
	if poster := strings.ToLower(strings.TrimSpace(filter.Poster)); poster != "" {
		query = query.Where("LOWER(poster_username) = ?", poster)
	}

	var outfits []models.Outfit
	if err := query.Order("created_at DESC, id DESC").Limit(clampLimit(filter.Limit)).Find(&outfits).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return outfits, nil
}

func (r *outfitRepository) ListByPoster(ctx context.Context, posterID uint, limit int) ([]models.Outfit, error) {
	var outfits []models.Outfit
	if err := r.db.WithContext(ctx).
		Where("poster_id = ?", posterID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit)).
		Find(&outfits).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return outfits, nil
}

func (r *outfitRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.Outfit, error) {
	if len(ids) == 0 {
		return []models.Outfit{}, nil
	}
	var outfits []models.Outfit
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC, id DESC").
		Limit(models.MaxListResults).
		Find(&outfits).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return outfits, nil
}

type outfitVotes struct {
	ID    uint
	Votes datatypes.JSONType[models.VoteMap]
}

func (r *outfitRepository) VotesFor(ctx context.Context, ids []uint, voterID uint) (map[uint]int, error) {
	result := make(map[uint]int, len(ids))
	for _, id := range ids {
		result[id] = 0
	}
	if len(ids) == 0 {
		return result, nil
	}

	var rows []outfitVotes
	if err := r.db.WithContext(ctx).
		Model(&models.Outfit{}).
		Select("id", "votes").
		Where("id IN ?", ids).
		Find(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		result[row.ID] = row.Votes.Data()[voterID]
	}
	return result, nil
}

func (r *outfitRepository) Mutate(ctx context.Context, id uint, fn func(*models.Outfit) error) (*models.Outfit, error) {
	var outfit models.Outfit
	key := cache.OutfitKey(id)
	published := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&outfit, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Outfit", id)
			}
			return models.NewInternalError(err)
		}

		known := len(outfit.Comments)
		if err := fn(&outfit); err != nil {
			return err
		}
		if err := tx.Save(&outfit).Error; err != nil {
			return models.NewInternalError(err)
		}
		if err := indexCommenters(tx, outfit.ID, outfit.Comments[known:]); err != nil {
			return err
		}

		// Published under the row lock so concurrent writers reach the cache
		// in commit order.
		cache.Publish(ctx, key, &outfit, cache.OutfitTTL)
		published = true
		return nil
	})
	if err != nil {
		if published {
			cache.Invalidate(ctx, key)
		}
		return nil, err
	}
	return &outfit, nil
}

func indexCommenters(tx *gorm.DB, outfitID uint, added []models.Comment) error {
	if len(added) == 0 {
		return nil
	}
	authors := models.CommenterIDs(added)
	rows := make([]models.OutfitCommenter, 0, len(authors))
	for _, userID := range authors {
		rows = append(rows, models.OutfitCommenter{OutfitID: outfitID, UserID: userID})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *outfitRepository) RenamePoster(ctx context.Context, posterID uint, username, avatar string) (int64, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Outfit{}).
		Where("poster_id = ?", posterID).
		Pluck("id", &ids).Error; err != nil {
		return 0, models.NewInternalError(err)
	}

	res := r.db.WithContext(ctx).
		Model(&models.Outfit{}).
		Where("poster_id = ?", posterID).
		Updates(map[string]any{
			"poster_username": username,
			"poster_avatar":   avatar,
		})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}

	cache.InvalidateOutfits(ctx, ids...)
	return res.RowsAffected, nil
}

func (r *outfitRepository) CommentedOutfitIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.OutfitCommenter{}).
		Where("user_id = ?", userID).
		Order("outfit_id").
		Pluck("outfit_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
