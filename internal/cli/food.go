package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/dukerupert/platescore/internal/model"
)

type ScoreCmd struct {
	File string `arg:"" optional:"" default:"-" help:"Product JSON file, or - for stdin."`
}

func (c *ScoreCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}

	var r io.Reader = ctx.In
	if c.File != "-" {
		f, err := os.Open(c.File)
		if err != nil {
			return fmt.Errorf("open product file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var p model.FoodProduct
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		return fmt.Errorf("decode product: %w", err)
	}

	res := svc.Explain(p)
	if ctx.JSON {
		return ctx.printJSON(res)
	}

	name := p.ProductName
	if name == "" {
		name = "(unnamed product)"
	}
	fmt.Fprintf(ctx.Out, "%s  %s\n", scoreBadge(res.Score, res.Rating), headerStyle.Render(name))
	fmt.Fprintf(ctx.Out, "  %-24s %+6.1f\n", "start", res.Start)
	for _, contrib := range res.Contributions {
		fmt.Fprintf(ctx.Out, "  %-24s %+6.1f\n", contrib.Factor, contrib.Points)
	}
	return nil
}

type SearchCmd struct {
	Query string `arg:"" help:"Search terms."`
	Limit int    `help:"Maximum results." default:"20"`
}

func (c *SearchCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	res, err := svc.Search(context.Background(), c.Query, c.Limit)
	if err != nil {
		return err
	}
	if res.Warning != "" && !ctx.JSON {
		fmt.Fprintln(ctx.Out, dimStyle.Render("warning: food database partly unreachable, results may be incomplete ("+res.Warning+")"))
	}
	return ctx.printProducts(res.Products)
}

type LookupCmd struct {
	Barcode string `arg:"" help:"Product barcode."`
}

func (c *LookupCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	p, err := svc.Lookup(context.Background(), c.Barcode)
	if err != nil {
		return err
	}
	if ctx.JSON {
		return ctx.printJSON(p)
	}
	ctx.printProductLine(*p)
	return nil
}

type CategoriesCmd struct{}

func (c *CategoriesCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	cats := svc.Categories()
	if ctx.JSON {
		return ctx.printJSON(cats)
	}
	for _, cat := range cats {
		fmt.Fprintln(ctx.Out, cat)
	}
	return nil
}

type PopularCmd struct{}

func (c *PopularCmd) Run(ctx *Context) error {
	svc, err := ctx.Service()
	if err != nil {
		return err
	}
	if !ctx.JSON {
		fmt.Fprintln(ctx.Out, headerStyle.Render("Popular in "+svc.Region()))
	}
	return ctx.printProducts(svc.Popular())
}
