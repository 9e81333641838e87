package db

import (
	"database/sql"
	"log"
	"os"

	_ "github.com/lib/pq"
)

// InitDB opens the Postgres connection and applies the schema.
func InitDB(dsn string) *sql.DB {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	createTables(db)
	log.Println("Database initialized")
	return db
}

func createTables(db *sql.DB) {
	schema, err := os.ReadFile("db/schema.sql")
	if err != nil {
		log.Fatalf("Failed to read schema file: %v", err)
	}

	if _, err = db.Exec(string(schema)); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}
}
