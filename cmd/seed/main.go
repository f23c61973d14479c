// Command seed populates the database with demo ShareFit data.
package main

import (
	"context"
	"flag"
	"log"

	"sharefit/internal/config"
	"sharefit/internal/database"
	"sharefit/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.Users, "Number of users to create")
	perUser := flag.Int("outfits", defaults.OutfitsPerUser, "Outfits per user")
	maxComments := flag.Int("comments", defaults.MaxCommentsPerFit, "Maximum comments per outfit")
	randSeed := flag.Int64("seed", 0, "Random seed (0 for random)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash passwords at minimum bcrypt cost")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:             *numUsers,
		OutfitsPerUser:    *perUser,
		MaxCommentsPerFit: *maxComments,
		RandSeed:          *randSeed,
		FastHash:          *fast,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
	}

	sum, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d outfits, %d votes, %d comments", sum.Users, sum.Outfits, sum.Votes, sum.Comments)
	log.Printf("All demo users have the password: %s", seed.DemoPassword)
}
