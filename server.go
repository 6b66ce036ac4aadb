package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/firodj/covsora/internal"
)

func serveCommand(a *app) *ffcli.Command {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var addr string
	fs.StringVar(&addr, "addr", ":1357", "listen address")

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve [-addr :1357]",
		FlagSet:    fs,
		Exec: func(ctx context.Context, args []string) error {
			doc, err := a.load()
			if err != nil {
				return err
			}
			a.printWarnings(doc)

			e := newServer(doc)
			go func() {
				<-ctx.Done()
				e.Shutdown(context.Background())
			}()
			err = e.Start(addr)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}
}

func newServer(doc *internal.CovDocument) *echo.Echo {
	ix := doc.Index

	e := echo.New()
	e.HideBanner = true

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, doc.Summary())
	})

	e.GET("/modules", func(c echo.Context) error {
		return c.JSON(http.StatusOK, ix.Modules())
	})

	e.GET("/modules/:key/blocks", func(c echo.Context) error {
		blocks, err := ix.BlocksByModule(c.Param("key"))
		if err != nil {
			return moduleError(c, err)
		}
		return c.JSON(http.StatusOK, blocks)
	})

	e.GET("/modules/:key/hitcounts", func(c echo.Context) error {
		hits, err := ix.HitCountMapByModule(c.Param("key"))
		if err != nil {
			return moduleError(c, err)
		}
		return c.JSON(http.StatusOK, hits)
	})

	e.GET("/blocks/at/:addr", func(c echo.Context) error {
		addr, err := strconv.ParseUint(c.Param("addr"), 0, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad address"})
		}
		bb := ix.BlockAt(addr)
		if bb == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "no block at address"})
		}
		return c.JSON(http.StatusOK, bb)
	})

	return e
}

func moduleError(c echo.Context, err error) error {
	var notFound *internal.ModuleNotFoundError
	if errors.As(err, &notFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return err
}
