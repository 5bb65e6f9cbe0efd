package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/siherrmann/streamer"
	"github.com/siherrmann/streamer/database"
	"github.com/siherrmann/streamer/helper"
)

const usersCSV = `user_id,name,email,age
,Alice,alice@example.com,30
,Bob,bob@example.com,25
,Carol,carol@example.com,41
,Dave,dave@example.com,52
,Eve,eve@example.com,19
`

// main walks through the streaming surface: it imports users from a CSV file
// on the source filesystem and then reads them back through the cursor, the
// batch cursor, the lazy paginator and the concurrent fetch.
func main() {
	os.Setenv("STREAMER_STORAGE_MODE", "memory")

	helper.LoadEnv()
	config, err := helper.NewDatabaseConfiguration()
	if err != nil {
		log.Fatalf("Failed to load database configuration: %v", err)
	}
	config.WithTableDrop = true

	s, err := streamer.NewStreamer("example", config, nil)
	if err != nil {
		log.Fatalf("Failed to create streamer: %v", err)
	}
	defer s.Close()

	ctx := context.Background()

	err = s.Filesystem.Write("users.csv", strings.NewReader(usersCSV), int64(len(usersCSV)))
	if err != nil {
		log.Fatalf("Failed to write csv file: %v", err)
	}

	result, err := s.ImportCSV(ctx, "users.csv")
	if err != nil {
		log.Fatalf("Failed to import csv file: %v", err)
	}
	fmt.Printf("Imported %v users (%v skipped)\n\n", result.Inserted, result.Skipped)

	fmt.Println("All users in insertion order:")
	cursor, err := s.StreamUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to stream users: %v", err)
	}
	for cursor.Next() {
		user, err := cursor.User()
		if err != nil {
			log.Fatalf("Failed to read user: %v", err)
		}
		fmt.Printf("  %v (%v years, %v)\n", user.Name, user.Age, user.Email)
	}
	if err := cursor.Err(); err != nil {
		log.Fatalf("Stream failed: %v", err)
	}
	cursor.Close()

	fmt.Println("\nFirst two users, then stopping early:")
	cursor, err = s.StreamUsers(ctx)
	if err != nil {
		log.Fatalf("Failed to stream users: %v", err)
	}
	for read := 0; read < 2 && cursor.Next(); read++ {
		user, err := cursor.User()
		if err != nil {
			log.Fatalf("Failed to read user: %v", err)
		}
		fmt.Printf("  %v\n", user.Name)
	}
	cursor.Close()

	average, err := s.AverageUserAge(ctx)
	if err != nil {
		log.Fatalf("Failed to compute average age: %v", err)
	}
	fmt.Printf("\nAverage age of users: %.2f\n", average)

	fmt.Println("\nUsers over 25, in batches of two:")
	batches, err := s.StreamUserBatches(ctx, 2)
	if err != nil {
		log.Fatalf("Failed to stream batches: %v", err)
	}
	for batches.Next() {
		for _, user := range database.FilterUsersByAge(batches.Batch(), 25) {
			fmt.Printf("  %v (%v years)\n", user.Name, user.Age)
		}
	}
	if err := batches.Err(); err != nil {
		log.Fatalf("Batch stream failed: %v", err)
	}
	batches.Close()

	fmt.Println("\nLazy pagination, two users per page:")
	pages := s.LazyPaginateUsers(2)
	for pages.Next(ctx) {
		fmt.Println("  next page:")
		for _, user := range pages.Page() {
			fmt.Printf("    %v\n", user.Name)
		}
	}
	if err := pages.Err(); err != nil {
		log.Fatalf("Pagination failed: %v", err)
	}

	users, err := s.FetchUsersConcurrently(ctx, 40)
	if err != nil {
		log.Fatalf("Failed to fetch users concurrently: %v", err)
	}
	fmt.Printf("\nFetched %v users total, %v of them older than 40\n", len(users.All), len(users.Older))
}
