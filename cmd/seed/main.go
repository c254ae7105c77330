// Command seed provisions a demo account with settings, a starter
// collection, and a small dictionary. Development only. Running it twice is
// safe: it exits early when the demo user already exists.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cardstoard/cardstoard-api/internal/auth"
	"github.com/cardstoard/cardstoard-api/internal/config"
	"github.com/cardstoard/cardstoard-api/internal/logger"
	"github.com/cardstoard/cardstoard-api/internal/store"
	"github.com/cardstoard/cardstoard-api/internal/store/schema"
	"github.com/cardstoard/cardstoard-api/internal/valuation"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
	email      = flag.String("email", "demo@cardstoard.com", "Demo account email")
	password   = flag.String("password", "demo-password", "Demo account password")
)

func f(v float64) *float64 { return &v }

func main() {
	flag.Parse()

	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)

	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := store.AutoMigrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	st := store.NewPGStore(db)

	existing, err := st.GetUserByEmail(ctx, *email)
	if err != nil {
		logger.Fatal("Failed to check demo user", zap.Error(err))
	}
	if existing != nil {
		logger.Info("Demo user already exists, nothing to do", zap.String("email", *email))
		return
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		logger.Fatal("Failed to hash password", zap.Error(err))
	}

	username := "demo"
	user := schema.User{
		Email:        *email,
		Username:     &username,
		PasswordHash: hash,
		IsVerified:   true,
	}
	if err := st.CreateUser(ctx, &user); err != nil {
		logger.Fatal("Failed to create demo user", zap.Error(err))
	}

	settings := schema.NewDefaultSettings(user.ID)
	if err := st.CreateSettings(ctx, settings); err != nil {
		logger.Fatal("Failed to create settings", zap.Error(err))
	}

	cards := starterCards(user.ID)
	for _, card := range cards {
		valuation.Revalue(card, settings)
	}
	if err := st.CreateCards(ctx, cards); err != nil {
		logger.Fatal("Failed to seed cards", zap.Error(err))
	}

	if err := st.CreateDictionaryEntries(ctx, starterDictionary()); err != nil {
		logger.Fatal("Failed to seed dictionary", zap.Error(err))
	}

	if _, err := st.RevalueAllCards(ctx, user.ID, time.Now()); err != nil {
		logger.Fatal("Failed to snapshot valuation", zap.Error(err))
	}

	logger.Info("Seed complete",
		zap.String("email", *email),
		zap.Int("cards", len(cards)),
	)
}

func starterCards(userID int64) []*schema.Card {
	return []*schema.Card{
		{
			UserID: userID, FirstName: "Mickey", LastName: "Mantle",
			Year: 1952, Brand: "Topps", CardNumber: "311", Rookie: true,
			Grade: f(1.5), BookHigh: f(1500), BookMid: f(900), BookLow: f(500),
		},
		{
			UserID: userID, FirstName: "Hank", LastName: "Aaron",
			Year: 1954, Brand: "Topps", CardNumber: "128", Rookie: true,
			Grade: f(1.0), BookHigh: f(1200), BookMid: f(700), BookLow: f(400),
		},
		{
			UserID: userID, FirstName: "Willie", LastName: "Mays",
			Year: 1951, Brand: "Bowman", CardNumber: "305", Rookie: true,
			Grade: f(0.8), BookHigh: f(1000), BookMid: f(600), BookLow: f(350),
		},
		{
			UserID: userID, FirstName: "Nolan", LastName: "Ryan",
			Year: 1968, Brand: "Topps", CardNumber: "177", Rookie: true,
			Grade: f(3.0), BookHigh: f(800), BookMid: f(450), BookLow: f(250),
		},
		{
			UserID: userID, FirstName: "Ken", LastName: "Griffey Jr",
			Year: 1989, Brand: "Upper Deck", CardNumber: "1", Rookie: true,
			Grade: f(3.0), BookHigh: f(120), BookMid: f(70), BookLow: f(40),
		},
		{
			UserID: userID, FirstName: "Cal", LastName: "Ripken Jr",
			Year: 1982, Brand: "Topps", CardNumber: "21",
			Grade: f(1.5), BookHigh: f(90), BookMid: f(55), BookLow: f(30),
		},
	}
}

func ri(v int) *int { return &v }

func starterDictionary() []*schema.DictionaryEntry {
	return []*schema.DictionaryEntry{
		{FirstName: "Mickey", LastName: "Mantle", RookieYear: ri(1952), Brand: "Topps", Year: 1952, CardNumber: "311"},
		{FirstName: "Mickey", LastName: "Mantle", RookieYear: ri(1952), Brand: "Bowman", Year: 1951, CardNumber: "253"},
		{FirstName: "Hank", LastName: "Aaron", RookieYear: ri(1954), Brand: "Topps", Year: 1954, CardNumber: "128"},
		{FirstName: "Willie", LastName: "Mays", RookieYear: ri(1951), Brand: "Bowman", Year: 1951, CardNumber: "305"},
		{FirstName: "Nolan", LastName: "Ryan", RookieYear: ri(1968), Brand: "Topps", Year: 1968, CardNumber: "177"},
		{FirstName: "Ken", LastName: "Griffey Jr", RookieYear: ri(1989), Brand: "Upper Deck", Year: 1989, CardNumber: "1"},
		{FirstName: "Cal", LastName: "Ripken Jr", RookieYear: ri(1982), Brand: "Topps", Year: 1982, CardNumber: "21"},
		{FirstName: "Ted", LastName: "Williams", RookieYear: ri(1939), Brand: "Play Ball", Year: 1939, CardNumber: "92"},
		{FirstName: "Roberto", LastName: "Clemente", RookieYear: ri(1955), Brand: "Topps", Year: 1955, CardNumber: "164"},
		{FirstName: "Sandy", LastName: "Koufax", RookieYear: ri(1955), Brand: "Topps", Year: 1955, CardNumber: "123"},
	}
}
