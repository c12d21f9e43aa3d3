package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/izzyreal/stitch/internal/config"
	"github.com/izzyreal/stitch/internal/protocol"
	"github.com/izzyreal/stitch/internal/search"
	"github.com/izzyreal/stitch/internal/server"
	"github.com/izzyreal/stitch/internal/store"
)

func runSearch(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	var source, tags string
	fs.StringVar(&source, "catalog", "", "catalog file, glob or SQLite snapshot (defaults to configured source)")
	fs.StringVar(&tags, "tags", "", "comma-separated tags; lists games carrying any of them")
	if err := fs.Parse(args); err != nil {
		return err
	}
	query := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(query) == "" && strings.TrimSpace(tags) == "" {
		return errors.New("search requires a query or --tags")
	}

	if source == "" {
		settings, err := config.Resolve()
		if err != nil {
			return err
		}
		source = settings.CatalogSource
	}
	cat, err := server.LoadCatalog(source)
	if err != nil {
		return err
	}
	idx := search.New(cat)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if strings.TrimSpace(tags) != "" {
		var list []string
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				list = append(list, t)
			}
		}
		writeGames(tw, protocol.NewGameViews(idx.GamesByTags(list)))
		return tw.Flush()
	}

	res := protocol.NewSearchResponse(query, idx.Search(query))
	writeGames(tw, res.Games)
	if len(res.Tags) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TAG\tGAMES")
		for _, t := range res.Tags {
			fmt.Fprintf(tw, "%s\t%d\n", t.Name, t.Count)
		}
	}
	return tw.Flush()
}

func writeGames(w io.Writer, games []protocol.GameView) {
	if len(games) == 0 {
		fmt.Fprintln(w, "no games found")
		return
	}
	fmt.Fprintln(w, "ID\tTITLE\tPRICE\tREVIEWS")
	for _, g := range games {
		price := g.PriceLabel
		if g.DiscountPercentage > 0 {
			price = fmt.Sprintf("%s (-%d%%)", price, g.DiscountPercentage)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s (%s)\n", g.ID, g.Title, price, g.ReviewLabel, g.ReviewCountLabel)
	}
}

func runImportCatalog(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("import-catalog", flag.ContinueOnError)
	var source, dbPath string
	fs.StringVar(&source, "from", "", "catalog file or glob to import")
	fs.StringVar(&dbPath, "db", "", "SQLite snapshot to write")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(source) == "" || strings.TrimSpace(dbPath) == "" {
		return errors.New("import-catalog requires --from and --db")
	}
	if !store.IsSource(dbPath) {
		return fmt.Errorf("--db %q must end in .db, .sqlite or .sqlite3", dbPath)
	}

	cat, err := server.LoadCatalog(source)
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.ImportCatalog(cat); err != nil {
		return err
	}
	fmt.Fprintf(out, "imported %d games from %s into %s\n", cat.Len(), source, db.Path())
	return nil
}

func runDiscover(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("discover", flag.ContinueOnError)
	var timeout time.Duration
	fs.DurationVar(&timeout, "timeout", 2*time.Second, "how long to browse")
	if err := fs.Parse(args); err != nil {
		return err
	}
	found, err := server.Discover(ctx, timeout)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(out, "no storefront servers found")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INSTANCE\tURL\tGRPC\tVERSION")
	for _, d := range found {
		grpcPort := "-"
		if d.GRPCPort > 0 {
			grpcPort = fmt.Sprint(d.GRPCPort)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Instance, d.BaseURL(), grpcPort, d.Version)
	}
	return tw.Flush()
}
