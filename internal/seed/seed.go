// Package seed creates demo users, outfits, votes and comments. Everything
// goes through the services so stored documents satisfy the same rules as
// data written over the API. Intended for development only.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sharefit/internal/auth"
	"sharefit/internal/models"
	"sharefit/internal/observability"
	"sharefit/internal/repository"
	"sharefit/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded user.
const DemoPassword = "password123"

var demoTags = []string{
	"streetwear", "summer", "winter", "workwear", "vintage",
	"minimal", "athleisure", "formal", "boho", "denim",
}

// Options controls how much data a run creates.
type Options struct {
	Users             int
	OutfitsPerUser    int
	MaxCommentsPerFit int
	// RandSeed makes a run reproducible. Zero picks a random seed.
	RandSeed int64
	// FastHash hashes passwords at the minimum bcrypt cost.
	FastHash bool
}

// DefaultOptions returns a small demo data set.
func DefaultOptions() Options {
	return Options{Users: 20, OutfitsPerUser: 3, MaxCommentsPerFit: 4}
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Outfits  int
	Votes    int
	Comments int
}

// Seeder populates a database through the service layer.
type Seeder struct {
	db       *gorm.DB
	opts     Options
	faker    *gofakeit.Faker
	auth     *service.AuthService
	outfits  *service.OutfitService
	comments *service.CommentService
}

// NewSeeder binds a Seeder to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	userRepo := repository.NewUserRepository(db)
	outfitRepo := repository.NewOutfitRepository(db)
	// Seeded sessions are discarded, so the signing secret is irrelevant.
	tokens := auth.NewTokenManager("seed-only", time.Minute)

	return &Seeder{
		db:       db,
		opts:     opts,
		faker:    gofakeit.New(opts.RandSeed),
		auth:     service.NewAuthService(userRepo, tokens, cost, "ShareFit"),
		outfits:  service.NewOutfitService(outfitRepo, userRepo),
		comments: service.NewCommentService(outfitRepo, userRepo),
	}
}

// ClearAll removes every seeded table's rows.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"outfit_commenters", "outfit_tags", "outfits", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run creates users, then outfits for each user, then votes and comments
// from the other users.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	sum := &Summary{}

	users := make([]*models.User, 0, s.opts.Users)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.createUser(ctx, i)
		if err != nil {
			return sum, err
		}
		users = append(users, u)
		sum.Users++
	}

	outfits := make([]*models.Outfit, 0, len(users)*s.opts.OutfitsPerUser)
	for _, u := range users {
		for j := 0; j < s.opts.OutfitsPerUser; j++ {
			o, err := s.outfits.CreateOutfit(ctx, s.buildOutfit(u.ID))
			if err != nil {
				return sum, fmt.Errorf("create outfit: %w", err)
			}
			outfits = append(outfits, o)
			sum.Outfits++
		}
	}

	for _, o := range outfits {
		votes, err := s.vote(ctx, o, users)
		sum.Votes += votes
		if err != nil {
			return sum, err
		}
		comments, err := s.discuss(ctx, o, users)
		sum.Comments += comments
		if err != nil {
			return sum, err
		}
	}

	observability.GlobalLogger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("outfits", sum.Outfits),
		slog.Int("votes", sum.Votes),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}

func (s *Seeder) createUser(ctx context.Context, i int) (*models.User, error) {
	base := strings.ToLower(s.faker.Username())
	if len(base) > 20 {
		base = base[:20]
	}
	sess, err := s.auth.Register(ctx, service.RegisterInput{
		Username:          fmt.Sprintf("%s%d", base, i),
		Password:          DemoPassword,
		ProfilePictureURL: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return sess.User, nil
}

func (s *Seeder) buildOutfit(posterID uint) service.CreateOutfitInput {
	f := s.faker
	items := make([]models.Item, f.Number(1, 4))
	for i := range items {
		items[i] = models.Item{
			Name:     strings.TrimSpace(f.Color() + " " + f.Noun()),
			Link:     f.URL(),
			ImageURL: fmt.Sprintf("https://picsum.photos/seed/%s/400/400", f.UUID()),
		}
	}
	pictures := make([]string, f.Number(1, 3))
	for i := range pictures {
		pictures[i] = fmt.Sprintf("https://picsum.photos/seed/%s/800/1000", f.UUID())
	}
	tags := make([]string, f.Number(1, 3))
	for i := range tags {
		tags[i] = f.RandomString(demoTags)
	}

	return service.CreateOutfitInput{
		PosterID:    posterID,
		Title:       fmt.Sprintf("%s %s %s", titleCase(f.Adjective()), titleCase(f.Color()), titleCase(f.Noun())),
		Description: f.Sentence(12),
		Items:       items,
		Pictures:    pictures,
		Tags:        tags,
	}
}

func (s *Seeder) vote(ctx context.Context, o *models.Outfit, users []*models.User) (int, error) {
	n := 0
	for _, u := range users {
		if u.ID == o.PosterID || !s.faker.Bool() {
			continue
		}
		value := 1
		if s.faker.Number(0, 3) == 0 {
			value = -1
		}
		if _, err := s.outfits.Rate(ctx, service.RateInput{UserID: u.ID, OutfitID: o.ID, Value: value}); err != nil {
			return n, fmt.Errorf("rate outfit %d: %w", o.ID, err)
		}
		n++
	}
	return n, nil
}

// discuss posts root comments and replies to earlier roots.
func (s *Seeder) discuss(ctx context.Context, o *models.Outfit, users []*models.User) (int, error) {
	if s.opts.MaxCommentsPerFit <= 0 || len(users) == 0 {
		return 0, nil
	}
	var roots []string
	count := s.faker.Number(0, s.opts.MaxCommentsPerFit)
	for i := 0; i < count; i++ {
		author := users[s.faker.Number(0, len(users)-1)]
		in := service.CreateCommentInput{
			UserID:   author.ID,
			OutfitID: o.ID,
			Text:     s.faker.Sentence(s.faker.Number(3, 12)),
		}
		if len(roots) > 0 && s.faker.Bool() {
			parent := roots[s.faker.Number(0, len(roots)-1)]
			in.ParentID = &parent
		}
		c, err := s.comments.CreateComment(ctx, in)
		if err != nil {
			return i, fmt.Errorf("comment on outfit %d: %w", o.ID, err)
		}
		if c.IsRoot() {
			roots = append(roots, c.ID)
		}
	}
	return count, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
