package repository

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"sharefit/internal/cache"
	"sharefit/internal/models"
	"sharefit/internal/testutil"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(outfits []models.Outfit) []string {
	out := make([]string, 0, len(outfits))
	for _, o := range outfits {
		out = append(out, o.Title)
	}
	return out
}

func TestOutfitRepository_CreateIndexesTags(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "ana", "")

	outfit := &models.Outfit{
		Title:    "Summer Linen",
		Tags:     []string{"Summer", "linen"},
		PosterID: ana.ID,
	}
	require.NoError(t, repo.Create(ctx, outfit))
	require.NotZero(t, outfit.ID)

	var tags []string
	require.NoError(t, db.Model(&models.OutfitTag{}).Where("outfit_id = ?", outfit.ID).Order("tag").Pluck("tag", &tags).Error)
	assert.Equal(t, []string{"linen", "summer"}, tags)

	got, err := repo.GetByID(ctx, outfit.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summer", "linen"}, []string(got.Tags))

	_, err = repo.GetByID(ctx, 999)
	assertCode(t, err, models.CodeNotFound)
}

func TestOutfitRepository_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "Ana", "")
	bo := testutil.CreateUser(t, db, "bo", "")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateOutfit(t, db, ana, "Summer Linen Set", base, "summer")
	testutil.CreateOutfit(t, db, bo, "Winter Coat", base.Add(time.Hour), "Winter", "outerwear")
	testutil.CreateOutfit(t, db, ana, "Office 100% wool", base.Add(2*time.Hour), "work")

	tests := []struct {
		name   string
		filter models.OutfitFilter
		want   []string
	}{
		{"no filter newest first", models.OutfitFilter{}, []string{"Office 100% wool", "Winter Coat", "Summer Linen Set"}},
		{"any term matches", models.OutfitFilter{Query: "linen COAT"}, []string{"Winter Coat", "Summer Linen Set"}},
		{"wildcards are literal", models.OutfitFilter{Query: "100%"}, []string{"Office 100% wool"}},
		{"underscore is literal", models.OutfitFilter{Query: "_"}, []string{}},
		{"tag case insensitive", models.OutfitFilter{Tag: "WINTER"}, []string{"Winter Coat"}},
		{"tag exact only", models.OutfitFilter{Tag: "wint"}, []string{}},
		{"poster case insensitive", models.OutfitFilter{Poster: "ana"}, []string{"Office 100% wool", "Summer Linen Set"}},
		{"filters combine", models.OutfitFilter{Query: "set wool", Poster: "ANA", Tag: "summer"}, []string{"Summer Linen Set"}},
		{"limit", models.OutfitFilter{Limit: 1}, []string{"Office 100% wool"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Search(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestOutfitRepository_ListByPosterAndIDs(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "ana", "")
	bo := testutil.CreateUser(t, db, "bo", "")

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	a1 := testutil.CreateOutfit(t, db, ana, "a1", base)
	testutil.CreateOutfit(t, db, ana, "a2", base.Add(time.Minute))
	b1 := testutil.CreateOutfit(t, db, bo, "b1", base.Add(2*time.Minute))

	mine, err := repo.ListByPoster(ctx, ana.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a2", "a1"}, titles(mine))

	byIDs, err := repo.ListByIDs(ctx, []uint{a1.ID, b1.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "a1"}, titles(byIDs))

	empty, err := repo.ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestOutfitRepository_VotesForSingleQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOutfitRepository(db)

	rows := sqlmock.NewRows([]string{"id", "votes"}).
		AddRow(1, `{"7":1,"8":-1}`).
		AddRow(2, `{"8":1}`)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT "id","votes" FROM "outfits" WHERE id IN ($1,$2,$3)`)).
		WithArgs(1, 2, 3).
		WillReturnRows(rows)

	votes, err := repo.VotesFor(context.Background(), []uint{1, 2, 3}, 7)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 1, 2: 0, 3: 0}, votes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutfitRepository_VotesForEmpty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewOutfitRepository(db)

	votes, err := repo.VotesFor(context.Background(), nil, 7)
	require.NoError(t, err)
	assert.Empty(t, votes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutfitRepository_Mutate(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "ana", "")
	bo := testutil.CreateUser(t, db, "bo", "")
	outfit := testutil.CreateOutfit(t, db, ana, "fit", time.Now())

	t.Run("vote persists rating", func(t *testing.T) {
		_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
			_, err := models.ApplyVote(o, bo.ID, models.VoteUp)
			return err
		})
		require.NoError(t, err)

		stored := testutil.ReloadOutfit(t, db, outfit.ID)
		assert.Equal(t, 1, stored.Rating)
		assert.Equal(t, models.VoteMap{bo.ID: 1}, stored.CurrentVotes())
	})

	t.Run("new comments index their authors", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
				_, err := o.AddComment(models.NewComment{Author: bo, Text: "nice"})
				return err
			})
			require.NoError(t, err)
		}

		ids, err := repo.CommentedOutfitIDs(ctx, bo.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{outfit.ID}, ids)

		none, err := repo.CommentedOutfitIDs(ctx, ana.ID)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("fn error leaves document unchanged", func(t *testing.T) {
		before := testutil.ReloadOutfit(t, db, outfit.ID)
		_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
			o.Comments[0].Text = "tampered"
			_, err := models.ApplyVote(o, ana.ID, 5)
			return err
		})
		assertCode(t, err, models.CodeValidation)

		after := testutil.ReloadOutfit(t, db, outfit.ID)
		assert.Equal(t, before.Comments, after.Comments)
		assert.Equal(t, before.Rating, after.Rating)
	})

	t.Run("missing outfit", func(t *testing.T) {
		_, err := repo.Mutate(ctx, 999, func(*models.Outfit) error { return nil })
		assertCode(t, err, models.CodeNotFound)
	})
}

func TestOutfitRepository_ConcurrentVotesAreNotLost(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	poster := testutil.CreateUser(t, db, "poster", "")
	outfit := testutil.CreateOutfit(t, db, poster, "fit", time.Now())

	voters := make([]*models.User, 10)
	for i := range voters {
		voters[i] = testutil.CreateUser(t, db, "voter"+string(rune('a'+i)), "")
	}

	var wg sync.WaitGroup
	for _, v := range voters {
		wg.Add(1)
		go func(voterID uint) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
				_, err := models.ApplyVote(o, voterID, models.VoteUp)
				return err
			})
			assert.NoError(t, err)
		}(v.ID)
	}
	wg.Wait()

	stored := testutil.ReloadOutfit(t, db, outfit.ID)
	assert.Equal(t, len(voters), stored.Rating)
	assert.Len(t, stored.CurrentVotes(), len(voters))
}

func TestOutfitRepository_ConcurrentCommentsAreNotLost(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	poster := testutil.CreateUser(t, db, "poster", "")
	outfit := testutil.CreateOutfit(t, db, poster, "fit", time.Now())

	authors := []*models.User{
		testutil.CreateUser(t, db, "cleo", ""),
		testutil.CreateUser(t, db, "dev", ""),
		testutil.CreateUser(t, db, "eli", ""),
	}

	const posts = 10
	var wg sync.WaitGroup
	for i := 0; i < posts; i++ {
		wg.Add(1)
		go func(author *models.User) {
			defer wg.Done()
			_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
				_, err := o.AddComment(models.NewComment{Author: author, Text: "love it"})
				return err
			})
			assert.NoError(t, err)
		}(authors[i%len(authors)])
	}
	wg.Wait()

	stored := testutil.ReloadOutfit(t, db, outfit.ID)
	require.Len(t, stored.Comments, posts)
	ids := make(map[string]struct{}, posts)
	for _, c := range stored.Comments {
		ids[c.ID] = struct{}{}
	}
	assert.Len(t, ids, posts)

	for _, author := range authors {
		commented, err := repo.CommentedOutfitIDs(ctx, author.ID)
		require.NoError(t, err)
		assert.Equal(t, []uint{outfit.ID}, commented, author.Username)
	}

	var indexed int64
	require.NoError(t, db.Model(&models.OutfitCommenter{}).Where("outfit_id = ?", outfit.ID).Count(&indexed).Error)
	assert.EqualValues(t, len(authors), indexed)
}

func useCache(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := cache.NewClient(mr.Addr())
	require.NoError(t, err)
	cache.SetClient(c)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = c.Close()
	})
	return mr
}

func TestOutfitRepository_MutatePublishesToCache(t *testing.T) {
	mr := useCache(t)
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "ana", "")
	bo := testutil.CreateUser(t, db, "bo", "")
	outfit := testutil.CreateOutfit(t, db, ana, "fit", time.Now())

	_, err := repo.GetByID(ctx, outfit.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.OutfitKey(outfit.ID)))

	_, err = repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
		_, err := models.ApplyVote(o, bo.ID, models.VoteUp)
		return err
	})
	require.NoError(t, err)

	var cached models.Outfit
	found, err := cache.GetJSON(ctx, cache.OutfitKey(outfit.ID), &cached)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, cached.Rating)

	t.Run("rejected write keeps published copy", func(t *testing.T) {
		_, err := repo.Mutate(ctx, outfit.ID, func(o *models.Outfit) error {
			_, err := models.ApplyVote(o, bo.ID, 7)
			return err
		})
		assertCode(t, err, models.CodeValidation)

		got, err := repo.GetByID(ctx, outfit.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, got.Rating)
	})
}

func TestOutfitRepository_RenamePoster(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewOutfitRepository(db)
	ctx := context.Background()
	ana := testutil.CreateUser(t, db, "ana", "")
	bo := testutil.CreateUser(t, db, "bo", "")
	a1 := testutil.CreateOutfit(t, db, ana, "a1", time.Now())
	testutil.CreateOutfit(t, db, ana, "a2", time.Now())
	b1 := testutil.CreateOutfit(t, db, bo, "b1", time.Now())

	n, err := repo.RenamePoster(ctx, ana.ID, "ana2", "https://img/new.png")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	stored := testutil.ReloadOutfit(t, db, a1.ID)
	assert.Equal(t, "ana2", stored.PosterUsername)
	assert.Equal(t, "https://img/new.png", stored.PosterAvatar)
	assert.Equal(t, "bo", testutil.ReloadOutfit(t, db, b1.ID).PosterUsername)
}
