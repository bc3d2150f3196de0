package main

import (
	"flag"
	"log"
	"time"

	"linkdrop/internal"
	"linkdrop/internal/database"
)

func main() {
	seedFlag := flag.Bool("seed", false, "Seed the catalog with sample links")
	flag.Parse()

	app, err := internal.NewApp()
	if err != nil {
		log.Fatal(err)
	}

	// If seed flag is provided, seed and exit
	if *seedFlag {
		db := app.GetDB()

		log.Println("Seeding catalog...")
		if err := database.Seed(db); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		log.Println("Catalog seeded successfully!")
		return
	}

	// Run with graceful shutdown
	if err := app.RunWithTimeout(10 * time.Second); err != nil {
		log.Fatal(err)
	}
}
