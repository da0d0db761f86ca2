package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/ayusman/posetris/internal/catalog"
	"github.com/ayusman/posetris/internal/store"
)

func templatesCommand() *cli.Command {
	catalogFlag := &cli.StringFlag{Name: "catalog", Usage: "YAML catalog layered over the built-in templates"}

	return &cli.Command{
		Name:  "templates",
		Usage: "inspect and manage block templates",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "print the playable catalog",
				Flags: []cli.Flag{catalogFlag},
				Action: func(c *cli.Context) error {
					entries, err := withStore(c, func(st *store.Store, path string) ([]catalog.Entry, error) {
						return (&catalog.Loader{Path: path, Stored: st.Templates()}).Entries()
					})
					if err != nil {
						return err
					}
					return printEntries(c.App.Writer, entries)
				},
			},
			{
				Name:      "validate",
				Usage:     "check a catalog file",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("validate needs exactly one file", 2)
					}
					entries, err := catalog.LoadFile(c.Args().First())
					if err != nil {
						return err
					}
					if _, err := catalog.Build(catalog.Merge(catalog.Default(), entries)); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "%s: %d templates ok\n", c.Args().First(), len(entries))
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "write the playable catalog as YAML",
				Flags: []cli.Flag{
					catalogFlag,
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default stdout)"},
				},
				Action: func(c *cli.Context) error {
					entries, err := withStore(c, func(st *store.Store, path string) ([]catalog.Entry, error) {
						return (&catalog.Loader{Path: path, Stored: st.Templates()}).Entries()
					})
					if err != nil {
						return err
					}
					data, err := catalog.Encode(entries)
					if err != nil {
						return err
					}
					if out := c.String("out"); out != "" {
						return os.WriteFile(out, data, 0644)
					}
					_, err = c.App.Writer.Write(data)
					return err
				},
			},
			{
				Name:      "import",
				Usage:     "store the templates of a catalog file, replacing ones with the same id",
				ArgsUsage: "<file>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 1 {
						return cli.Exit("import needs exactly one file", 2)
					}
					entries, err := catalog.LoadFile(c.Args().First())
					if err != nil {
						return err
					}
					n, err := withStore(c, func(st *store.Store, _ string) (int, error) {
						return importEntries(st.Templates(), entries)
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "imported %d templates\n", n)
					return nil
				},
			},
		},
	}
}

// withStore loads the configuration, opens the store and runs fn with the catalog path.
func withStore[T any](c *cli.Context, fn func(st *store.Store, catalogPath string) (T, error)) (T, error) {
	var zero T

	cfg, closer, err := loadConfig(c)
	if err != nil {
		return zero, err
	}
	defer closer.Close()

	st, err := openStore(cfg)
	if err != nil {
		return zero, err
	}
	defer st.Close()

	return fn(st, cfg.CatalogPath)
}

// templateWriter is the part of the template repository used by import.
type templateWriter interface {
	GetByID(id string) (*store.Template, error)
	Create(t *store.Template) error
	Update(t *store.Template) error
}

// importEntries upserts entries by ID. Recorded samples of replaced templates are kept.
func importEntries(repo templateWriter, entries []catalog.Entry) (int, error) {
	for _, e := range entries {
		existing, err := repo.GetByID(e.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			t := &store.Template{ID: e.ID, Name: e.Name, Shape: e.Shape, Angles: e.Angles, Color: e.Color}
			if t.Name == "" {
				t.Name = e.ID
			}
			if err := repo.Create(t); err != nil {
				return 0, fmt.Errorf("create %s: %w", e.ID, err)
			}
		case err != nil:
			return 0, fmt.Errorf("get %s: %w", e.ID, err)
		default:
			if e.Name != "" {
				existing.Name = e.Name
			}
			existing.Shape = e.Shape
			existing.Angles = e.Angles
			existing.Color = e.Color
			if err := repo.Update(existing); err != nil {
				return 0, fmt.Errorf("update %s: %w", e.ID, err)
			}
		}
		log.Debug().Str("template", e.ID).Msg("template imported")
	}
	return len(entries), nil
}

// printEntries writes one aligned row per entry.
func printEntries(w io.Writer, entries []catalog.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tCOLOR")
	for _, e := range entries {
		color := e.Color
		if color == "" {
			color = "-"
		}
		width := 0
		if len(e.Shape) > 0 {
			width = len(e.Shape[0])
		}
		fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\n", e.ID, e.Name, len(e.Shape), width, color)
	}
	return tw.Flush()
}
