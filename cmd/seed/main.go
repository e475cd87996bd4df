// Command seed loads a YAML scenario or generated fake data into the database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"chirp/internal/config"
	"chirp/internal/database"
	"chirp/internal/middleware"
	"chirp/internal/seed"
)

func main() {
	scenario := flag.String("scenario", "", "YAML scenario file; when empty, fake data is generated")
	numUsers := flag.Int("users", 50, "Number of users to generate")
	numPosts := flag.Int("posts", 200, "Number of posts to generate")
	fakeSeed := flag.Int64("seed", time.Now().UnixNano(), "Random seed for generated data")
	fast := flag.Bool("fast", false, "Hash passwords at bcrypt.MinCost")
	tokens := flag.Duration("tokens", 0, "Print an access token of this lifetime for every seeded user")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	if err := database.ApplySchema(ctx, db, cfg); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	var sc *seed.Scenario
	if *scenario != "" {
		if sc, err = seed.LoadScenarioFile(*scenario); err != nil {
			log.Fatalf("Failed to load scenario: %v", err)
		}
	} else {
		log.Printf("Generating %d users and %d posts (seed %d)", *numUsers, *numPosts, *fakeSeed)
		sc = seed.Generate(seed.GenerateOptions{Users: *numUsers, Posts: *numPosts, Seed: *fakeSeed})
	}

	res, err := seed.NewSeeder(db, seed.Options{SkipBcrypt: *fast}).Apply(ctx, sc)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users and %d posts", len(res.Users), len(res.Posts))

	if *tokens > 0 {
		handles := make([]string, 0, len(res.Users))
		for h := range res.Users {
			handles = append(handles, h)
		}
		sort.Strings(handles)
		for _, h := range handles {
			u := res.Users[h]
			token, err := middleware.IssueToken(cfg, u.ID, u.Verify, *tokens)
			if err != nil {
				log.Fatalf("Failed to issue token for %s: %v", h, err)
			}
			fmt.Printf("%s\t%d\t%s\n", h, u.ID, token)
		}
	}
}
