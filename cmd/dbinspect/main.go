package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/artdiscover/artdiscover-server/internal/domain"
	"github.com/artdiscover/artdiscover-server/internal/manifest"
	"github.com/artdiscover/artdiscover-server/internal/store"
	"github.com/artdiscover/artdiscover-server/internal/store/sqlite"
	"github.com/artdiscover/artdiscover-server/internal/universe"
)

func main() {
	dataPath := flag.String("data-path", os.ExpandEnv("$HOME/ArtDiscover/data"), "server data directory")
	driver := flag.String("driver", "badger", "storage driver (badger, sqlite)")
	flag.Parse()

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	var (
		db   store.Storage
		keys func(context.Context) ([]string, error)
		err  error
	)
	switch *driver {
	case "sqlite":
		db, err = sqlite.Open(filepath.Join(*dataPath, "artdiscover.db"), quiet)
	default:
		var bs *store.Store
		bs, err = store.New(filepath.Join(*dataPath, "db"), quiet)
		if err == nil {
			db, keys = bs, bs.Keys
		}
	}
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	if keys != nil {
		all, err := keys(ctx)
		if err != nil {
			log.Fatalf("Error listing keys: %v", err)
		}
		fmt.Printf("Keys: %v\n\n", all)
	}

	raw, ok, err := db.GetItem(ctx, store.KeyUniverse)
	switch {
	case err != nil:
		log.Printf("Error reading manifest cache: %v", err)
	case !ok:
		fmt.Println("Manifest cache: empty")
	default:
		records, err := universe.Parse(raw)
		if err != nil {
			fmt.Printf("Manifest cache: corrupt (%v)\n", err)
			break
		}
		st := manifest.Summarize(records)
		fmt.Printf("Manifest cache: %d records (%d distinct)\n", st.Total, st.Distinct)
		for _, d := range st.Departments {
			fmt.Printf("  %3d  %-22s %8d\n", d.ID, d.Name, d.Count)
		}
	}
	fmt.Println()

	consentRaw, ok, err := db.GetItem(ctx, store.KeyConsent)
	if err != nil {
		log.Printf("Error reading consent: %v", err)
	}
	fmt.Printf("Consent: %s\n", domain.ParseStoredConsent(string(consentRaw), ok))

	favRaw, ok, err := db.GetItem(ctx, store.KeyFavorites)
	if err != nil {
		log.Printf("Error reading favorites: %v", err)
	}
	var favorites []domain.FavoriteEntry
	if ok {
		if err := json.Unmarshal(favRaw, &favorites); err != nil {
			fmt.Printf("Favorites: corrupt (%v)\n", err)
			return
		}
	}
	fmt.Printf("Favorites: %d\n", len(favorites))
	for i, f := range favorites {
		if i == 5 {
			fmt.Printf("  ... and %d more\n", len(favorites)-5)
			break
		}
		fmt.Printf("  [%d] %s (%s)\n", f.ObjectID, f.Title, f.ArtistDisplayName)
	}
}
