package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"pricing-service/internal/api"
	"pricing-service/internal/config"
	"pricing-service/internal/entity"
	"pricing-service/internal/notifier"
	"pricing-service/internal/repository"
	"pricing-service/internal/scheduler"
	"pricing-service/internal/service"
	"pricing-service/migrations"
)

func connectDBEnv(host, port, user, pass, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)

	var db *sql.DB
	var err error
	for i := 0; i < 10; i++ {
		db, err = sql.Open("mysql", dsn)
		if err == nil {
			err = db.Ping()
			if err == nil {
				log.Printf("Connected to DB %s", dbname)
				return db, nil
			}
		}
		log.Printf("Retry %d: failed to connect to DB %s (%s:%s): %v", i+1, dbname, host, port, err)
		time.Sleep(3 * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to DB %s at %s:%s after retries: %v", dbname, host, port, err)
}

func main() {
	db, err := connectDBEnv(os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"), os.Getenv("DB_PASS"), os.Getenv("DB_NAME"))
	if err != nil {
		panic(err)
	}

	if err := migrations.AutoMigrateProducts(3, db); err != nil {
		log.Fatalf("Failed to migrate products table: %v", err)
	}
	if err := migrations.AutoMigratePricingRules(3, db); err != nil {
		log.Fatalf("Failed to migrate pricing_rules table: %v", err)
	}
	if err := migrations.AutoMigrateZoneMultipliers(3, db); err != nil {
		log.Fatalf("Failed to migrate zone_multipliers table: %v", err)
	}
	if err := migrations.AutoMigratePriceHistory(3, db); err != nil {
		log.Fatalf("Failed to migrate price_history table: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: os.Getenv("REDIS_ADDR"),
	})

	kafkaWriter := config.NewKafkaWriter(config.PriceChangeTopic)

	productRepo := repository.NewProductRepository(db)
	ruleRepo := repository.NewPricingRuleRepository(db)
	zoneRepo := repository.NewZoneRepository(db)
	historyRepo := repository.NewPriceHistoryRepository(db)

	pricingService := service.NewPricingService(productRepo, ruleRepo, zoneRepo, historyRepo, kafkaWriter, rdb)
	pricingHandler := api.NewPricingHandler(pricingService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic expiration discount runs across all tenants.
	intervalSeconds, _ := strconv.Atoi(os.Getenv("EVAL_INTERVAL_SECONDS"))
	go scheduler.Run(ctx, pricingService, productRepo, scheduler.Config{IntervalSeconds: intervalSeconds})

	// Tail the price change feed so operators can follow mutations from any
	// source (manual, automatic, or another process) in the service log.
	priceNotifier := notifier.New(config.NewKafkaReader(config.PriceChangeTopic, "pricing-notifier-group"))
	unsubscribe := priceNotifier.Subscribe(func(event entity.PriceChangeEvent) {
		log.Printf("Price change: product %d (%s) %.2f -> %.2f by %s: %s",
			event.ProductID, event.ProductName, event.OldPrice, event.NewPrice, event.ChangedBy, event.Reason)
	})
	defer unsubscribe()

	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(20))))

	e.GET("/pricing/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{
			"status":  "ok",
			"service": "pricing-service",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "secret"
	}
	g := e.Group("/pricing", echojwt.JWT([]byte(jwtSecret)))
	pricingHandler.Register(g)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8084"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
