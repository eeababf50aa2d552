package main

import (
	"context"
	"log"
	"net/http"
	"os"

	webAdapter "retail-pos/internal/adapters/web"
	"retail-pos/internal/app"
	"retail-pos/internal/core"
	"retail-pos/internal/db"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	productService := core.NewProductService(pool)
	customerService := core.NewCustomerService(pool)
	saleService := core.NewSaleService(pool, productService, customerService)
	debtService := core.NewDebtService(pool)
	purchaseService := core.NewPurchaseService(pool, productService)
	reportService := core.NewReportService(pool)
	userService := core.NewUserService(pool)

	svc := app.NewAppService(productService, customerService, saleService,
		debtService, purchaseService, reportService, userService)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret)

	log.Printf("server starting on :%s", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("server: %v", err)
	}
}
