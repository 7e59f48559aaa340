package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/civic-report-api/config"
)

// Rewrites plaintext passwords left in the users collection as bcrypt hashes.
// Usage: go run ./scripts/hash_passwords [-dry-run]
func main() {
	dryRun := flag.Bool("dry-run", false, "only report the users that would be updated")
	flag.Parse()

	conf := config.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.URL))
	if err != nil {
		fmt.Printf("Error connecting to %s: %v\n", conf.URL, err)
		os.Exit(1)
	}
	defer client.Disconnect(context.Background())

	users := client.Database(conf.DatabaseName).Collection("users")
	// bcrypt hashes always start with $2
	cursor, err := users.Find(ctx, bson.M{"password": bson.M{"$not": bson.M{"$regex": `^\$2[abxy]?\$`}}})
	if err != nil {
		fmt.Printf("Error finding users: %v\n", err)
		os.Exit(1)
	}
	defer cursor.Close(ctx)

	updated := 0
	for cursor.Next(ctx) {
		var doc struct {
			ID       interface{} `bson:"_id"`
			Username string      `bson:"username"`
			Password string      `bson:"password"`
		}
		if err = cursor.Decode(&doc); err != nil {
			fmt.Printf("Error decoding user: %v\n", err)
			continue
		}
		if strings.TrimSpace(doc.Password) == "" {
			fmt.Printf("Skipping %s: empty password\n", doc.Username)
			continue
		}
		if *dryRun {
			fmt.Printf("Would hash password for %s\n", doc.Username)
			updated++
			continue
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(doc.Password), bcrypt.DefaultCost)
		if err != nil {
			fmt.Printf("Error generating hash for %s: %v\n", doc.Username, err)
			continue
		}
		_, err = users.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": bson.M{"password": string(hashedPassword)}})
		if err != nil {
			fmt.Printf("Error updating %s: %v\n", doc.Username, err)
			continue
		}
		fmt.Printf("Hashed password for %s\n", doc.Username)
		updated++
	}
	if err = cursor.Err(); err != nil {
		fmt.Printf("Error iterating users: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\n%d user(s) updated\n", updated)
}
