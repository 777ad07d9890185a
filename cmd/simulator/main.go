package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
)

var (
	games = []string{"League of Legends", "Valorant", "Overwatch 2", "Apex Legends", "Counter-Strike 2"}
	ranks = []string{"Iron", "Bronze", "Silver", "Gold", "Platinum", "Diamond", "Master"}
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Global flags
	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "list":
		listCmd(apiURL, args)
	case "clear":
		clearCmd(apiURL, args)
	case "watch":
		watchCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Market Simulator - Development tool for filling a local marketplace

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Log in and create fake account listings
  list      Print every listing, newest first
  clear     Delete every listing
  watch     Stream listing changes from the live feed
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Create a seller first
  seeduser -username test -password password

  # Add 20 listings as that seller
  simulator populate --count=20 --username=test --password=password

  # Follow changes while another terminal populates
  simulator watch --username=test --password=password`)
}

func credentialFlags(fs *flag.FlagSet) (*string, *string) {
	username := fs.String("username", "test", "Username to log in with")
	password := fs.String("password", "password", "Password to log in with")
	return username, password
}

func login(client *APIClient, username, password string) {
	fmt.Printf("Logging in as %s... ", username)
	if _, err := client.Login(username, password); err != nil {
		fmt.Printf("FAILED\n  Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("OK")
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	count := fs.Int("count", 10, "Number of listings to create")
	username, password := credentialFlags(fs)
	fs.Parse(args)

	if *count < 1 || *count > 1000 {
		fmt.Println("Error: --count must be between 1 and 1000")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	login(client, *username, *password)

	fmt.Printf("Creating %d listings:\n", *count)
	for i := 0; i < *count; i++ {
		fields := fakeListing()
		id, err := client.CreateListing(fields)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED: %v\n", i+1, *count, err)
			os.Exit(1)
		}
		fmt.Printf("  [%d/%d] %s (%s)\n", i+1, *count, fields["title"], id)
	}

	if err := client.Logout(); err != nil {
		fmt.Printf("Warning: logout failed: %v\n", err)
	}
}

func listCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	username, password := credentialFlags(fs)
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	login(client, *username, *password)

	listings, err := client.ListListings()
	if err != nil {
		fmt.Printf("Failed to list listings: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%d listing(s)\n", len(listings))
	for _, l := range listings {
		fmt.Printf("  %v  %-40v  %v  $%v\n", l["id"], l["title"], l["game"], l["price"])
	}
}

func clearCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("clear", flag.ExitOnError)
	username, password := credentialFlags(fs)
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	login(client, *username, *password)

	listings, err := client.ListListings()
	if err != nil {
		fmt.Printf("Failed to list listings: %v\n", err)
		os.Exit(1)
	}

	deleted := 0
	for _, l := range listings {
		id, _ := l["id"].(string)
		if err := client.DeleteListing(id); err != nil {
			fmt.Printf("  %s: %v\n", id, err)
			continue
		}
		deleted++
	}
	fmt.Printf("Deleted %d of %d listing(s)\n", deleted, len(listings))
}

func watchCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	anonymous := fs.Bool("anonymous", false, "Skip login (for deployments with REQUIRE_AUTH=false)")
	username, password := credentialFlags(fs)
	fs.Parse(args)

	client := NewAPIClient(apiURL)
	if !*anonymous {
		login(client, *username, *password)
	}

	fmt.Println("Watching listing feed (Ctrl+C to stop)")
	err := client.Watch(func(e FeedEvent) {
		fmt.Printf("%d  %-16s %s\n", e.Timestamp, e.Type, string(e.Payload))
	})
	if err != nil {
		fmt.Printf("Feed closed: %v\n", err)
		os.Exit(1)
	}
}

func fakeListing() map[string]interface{} {
	game := games[rand.Intn(len(games))]
	rank := ranks[rand.Intn(len(ranks))]
	return map[string]interface{}{
		"title":       fmt.Sprintf("%s %s account", rank, game),
		"game":        game,
		"rank":        rank,
		"level":       30 + rand.Intn(470),
		"price":       10 + rand.Intn(490),
		"description": fmt.Sprintf("Hand-levelled %s account, %s rank, email change available.", game, rank),
	}
}
