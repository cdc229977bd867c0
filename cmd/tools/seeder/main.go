package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-salon/internal/repo"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedServices(ctx, repo.CatalogRepo{DB: pool})
	seedProducts(ctx, repo.CatalogRepo{DB: pool})
	seedStaff(ctx, repo.StaffRepo{DB: pool})

	log.Println("Seeding completed successfully!")
}

func seedServices(ctx context.Context, catalog repo.CatalogRepo) {
	services := []repo.ServiceRecord{
		{Name: "Men's Haircut", Category: "hair", Price: price("25.00"), DurationMinutes: 30, Active: true},
		{Name: "Women's Haircut", Category: "hair", Price: price("40.00"), DurationMinutes: 45, Active: true},
		{Name: "Beard Trim", Category: "hair", Price: price("12.00"), DurationMinutes: 15, Active: true},
		{Name: "Hair Coloring", Category: "color", Price: price("80.00"), DurationMinutes: 90, Active: true},
		{Name: "Highlights", Category: "color", Price: price("110.00"), DurationMinutes: 120, Active: true},
		{Name: "Deep Conditioning", Category: "treatment", Price: price("35.00"), DurationMinutes: 30, Active: true},
		{Name: "Scalp Treatment", Category: "treatment", Price: price("45.00"), DurationMinutes: 45, Active: true},
		{Name: "Eyebrow Wax", Category: "wax", Price: price("12.50"), DurationMinutes: 15, Active: true},
		{Name: "Full Face Wax", Category: "wax", Price: price("38.00"), DurationMinutes: 30, Active: true},
		{Name: "Manicure", Category: "nails", Price: price("28.00"), DurationMinutes: 40, Active: true},
		{Name: "Pedicure", Category: "nails", Price: price("38.00"), DurationMinutes: 50, Active: true},
	}

	log.Println("Seeding services...")
	for _, svc := range services {
		if _, err := catalog.CreateService(ctx, svc); err != nil {
			log.Fatalf("Failed to seed service %q: %v", svc.Name, err)
		}
	}
}

func seedProducts(ctx context.Context, catalog repo.CatalogRepo) {
	products := []repo.ProductRecord{
		{Name: "Argan Oil Shampoo", Category: "hair-care", Price: price("18.50"), Stock: 40, Active: true},
		{Name: "Keratin Conditioner", Category: "hair-care", Price: price("21.00"), Stock: 35, Active: true},
		{Name: "Matte Styling Clay", Category: "styling", Price: price("16.00"), Stock: 50, Active: true},
		{Name: "Sea Salt Spray", Category: "styling", Price: price("14.00"), Stock: 25, Active: true},
		{Name: "Beard Oil", Category: "grooming", Price: price("13.50"), Stock: 60, Active: true},
		{Name: "Cuticle Cream", Category: "nails", Price: price("9.00"), Stock: 30, Active: true},
		{Name: "Nail Strengthener", Category: "nails", Price: price("11.00"), Stock: 20, Active: true},
	}

	log.Println("Seeding products...")
	for _, p := range products {
		if _, err := catalog.CreateProduct(ctx, p); err != nil {
			log.Fatalf("Failed to seed product %q: %v", p.Name, err)
		}
	}
}

func seedStaff(ctx context.Context, staff repo.StaffRepo) {
	members := []repo.StaffRecord{
		{Name: "Alice Tan", Position: "Senior Stylist", Active: true},
		{Name: "Bob Hartono", Position: "Barber", Active: true},
		{Name: "Citra Dewi", Position: "Colorist", Active: true},
		{Name: "Dimas Putra", Position: "Stylist", Active: true},
		{Name: "Eka Salim", Position: "Nail Technician", Active: true},
	}

	log.Println("Seeding staff...")
	for _, m := range members {
		if _, err := staff.Create(ctx, m); err != nil {
			log.Fatalf("Failed to seed staff member %q: %v", m.Name, err)
		}
	}
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
