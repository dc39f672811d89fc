package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dukerupert/platescore/internal/model"
)

type TrackCmd struct {
	User     string `required:"" short:"u" help:"User id to log the entry for."`
	Barcode  string `xor:"source" help:"Look the product up by barcode."`
	File     string `xor:"source" type:"existingfile" help:"Read the product from a JSON file."`
	Quantity int    `short:"q" default:"100" help:"Quantity in grams."`
}

func (c *TrackCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	ts, err := ctx.Store()
	if err != nil {
		return err
	}

	var product model.FoodProduct
	switch {
	case c.Barcode != "":
		p, err := svc.Lookup(context.Background(), c.Barcode)
		if err != nil {
			return err
		}
		product = *p
	case c.File != "":
		raw, err := os.ReadFile(c.File)
		if err != nil {
			return fmt.Errorf("read product file: %w", err)
		}
		if err := json.Unmarshal(raw, &product); err != nil {
			return fmt.Errorf("decode product: %w", err)
		}
	default:
		return fmt.Errorf("one of --barcode or --file is required")
	}

	entry, err := ts.Create(context.Background(), c.User, svc.Rescore(product), c.Quantity)
	if err != nil {
		return err
	}
	if ctx.JSON {
		return ctx.printJSON(entry)
	}
	fmt.Fprintf(ctx.Out, "Tracked %dg of %s (%s)\n", entry.Quantity, entry.FoodProduct.ProductName, entry.ID)
	return nil
}

type HistoryCmd struct {
	User  string `arg:"" help:"User id."`
	Limit int    `help:"Maximum entries." default:"50"`
}

func (c *HistoryCmd) Run(ctx *Context) error {
	ts, err := ctx.Store()
	if err != nil {
		return err
	}
	entries, err := ts.ListByUser(context.Background(), c.User, c.Limit)
	if err != nil {
		return err
	}
	if ctx.JSON {
		return ctx.printJSON(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintf(ctx.Out, "No entries for %s\n", c.User)
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(ctx.Out, "%s  %s  %5dg  %s  %s\n",
			dimStyle.Render(e.Timestamp.Local().Format("2006-01-02 15:04")),
			scoreBadge(e.FoodProduct.HealthScore, e.FoodProduct.HealthRating),
			e.Quantity,
			e.FoodProduct.ProductName,
			dimStyle.Render(e.ID),
		)
	}
	return nil
}

type UntrackCmd struct {
	ID string `arg:"" help:"Tracking entry id."`
}

func (c *UntrackCmd) Run(ctx *Context) error {
	ts, err := ctx.Store()
	if err != nil {
		return err
	}
	if err := ts.DeleteByID(context.Background(), c.ID); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Out, "Deleted %s\n", c.ID)
	return nil
}
