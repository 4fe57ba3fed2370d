package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"resqnowserver/internal/config"
	"resqnowserver/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := migrate.Run(cfg.DBDSN, *direction); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	fmt.Println("migrations", *direction, "complete")
}
