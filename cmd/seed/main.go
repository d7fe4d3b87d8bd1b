// Package main seeds a data directory with demo books, reading sessions and goals.
//
// Sessions cover the past few weeks with a streak ending today, so the
// dashboard, calendar and goal views have something to show.
//
// Usage:
//
//	DB_PATH=~/ReadTrack/data/db go run ./cmd/seed
//	DB_PATH=~/ReadTrack/data/db go run ./cmd/seed --days 60
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/readtrack/readtrack-server/internal/domain"
	"github.com/readtrack/readtrack-server/internal/logger"
	"github.com/readtrack/readtrack-server/internal/service"
	"github.com/readtrack/readtrack-server/internal/store"
	"github.com/readtrack/readtrack-server/internal/validation"
)

var days = flag.Int("days", 30, "Days of reading history to generate")

var demoBooks = []service.CreateBookInput{
	{Title: "The Left Hand of Darkness", Author: "Ursula K. Le Guin", TotalPages: intPtr(304), Status: domain.StatusReading},
	{Title: "Middlemarch", Author: "George Eliot", TotalPages: intPtr(880), Status: domain.StatusReading},
	{Title: "Piranesi", Author: "Susanna Clarke", TotalPages: intPtr(272), Status: domain.StatusCompleted},
	{Title: "The Remains of the Day", Author: "Kazuo Ishiguro", TotalPages: intPtr(258), Status: domain.StatusPaused},
	{Title: "Beloved", Author: "Toni Morrison", TotalPages: intPtr(324)},
}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/ReadTrack/data/db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := store.New(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	clock := service.SystemClock(nil)
	v := validation.New()
	discard := logger.Discard()

	books := service.NewBookService(s, nil, v, clock, discard)
	sessions := service.NewReadingSessionService(s, v, clock, discard)
	stats := service.NewStatsService(s, clock, discard)
	goals := service.NewGoalService(s, stats, v, clock, discard)

	var reading []*domain.Book
	for _, in := range demoBooks {
		book, err := books.Create(ctx, in)
		if err != nil {
			log.Fatalf("Failed to create %q: %v", in.Title, err)
		}
		fmt.Printf("  Created book: %s (%s)\n", book.Title, book.Status)
		if book.Status == domain.StatusReading {
			reading = append(reading, book)
		}
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	now := clock.Now()
	created := 0

	for day := *days - 1; day >= 0; day-- {
		// The last three days always have reading so the streak is live.
		if day > 2 && rng.Float32() > 0.7 {
			continue
		}

		book := reading[rng.Intn(len(reading))]
		date := time.Date(now.Year(), now.Month(), now.Day()-day, 7+rng.Intn(15), rng.Intn(60), 0, 0, now.Location())

		_, err := sessions.Create(ctx, service.CreateSessionInput{
			BookID:          book.ID,
			Date:            date,
			PagesRead:       intPtr(5 + rng.Intn(45)),
			DurationMinutes: intPtr(10 + rng.Intn(50)),
		})
		if err != nil {
			log.Printf("Failed to create session: %v", err)
			continue
		}
		created++
	}
	fmt.Printf("  Created %d reading sessions over %d days\n", created, *days)

	for _, in := range []service.CreateGoalInput{
		{Type: domain.GoalDailyReading, Target: 20, Period: domain.PeriodMonth},
		{Type: domain.GoalBooksPerYear, Target: 24, Period: domain.PeriodYear},
		{Type: domain.GoalPagesPerDay, Target: 30, Period: domain.PeriodDay},
	} {
		goal, err := goals.Create(ctx, in)
		if err != nil {
			log.Printf("Failed to create goal %s: %v", in.Type, err)
			continue
		}
		fmt.Printf("  Created goal: %s %d per %s\n", goal.Type, goal.Target, goal.Period)
	}

	summary, err := stats.FullStats(ctx)
	if err != nil {
		log.Fatalf("Failed to compute stats: %v", err)
	}
	fmt.Printf("\nCurrent streak: %d days, longest: %d days, pages: %d\n",
		summary.CurrentStreak, summary.LongestStreak, summary.TotalPagesRead)

	fmt.Println("\nSeeding complete!")
}

func intPtr(n int) *int { return &n }
