package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/broady/mxapi"
	"github.com/broady/mxapi/client"
	"github.com/broady/mxapi/clientapi/discovery"
	"github.com/broady/mxapi/internal/config"
	"github.com/broady/mxapi/openapi"
)

type CLI struct {
	Config  string `help:"YAML file with homeserver settings." short:"c" type:"path" env:"MXAPI_CONFIG"`
	Verbose bool   `help:"Log at debug level." short:"v"`

	Version      VersionCmd      `cmd:"" help:"Print version information."`
	ParseVersion ParseVersionCmd `cmd:"" help:"Print the canonical form of version tokens."`
	SelectPath   SelectPathCmd   `cmd:"" help:"Print the path an endpoint is called at for a set of versions."`
	List         ListCmd         `cmd:"" help:"List known endpoints."`
	OpenAPI      OpenAPICmd      `cmd:"" name:"openapi" help:"Print an OpenAPI document of known endpoints."`
	Versions     VersionsCmd     `cmd:"" help:"Ask a homeserver which versions it supports."`
}

// runContext is bound into every command's Run.
type runContext struct {
	ctx        context.Context
	out        io.Writer
	logger     *slog.Logger
	configPath string
}

type VersionCmd struct{}

func (c *VersionCmd) Run(rc *runContext) error {
	fmt.Fprintf(rc.out, "mxapi %s (matrix %s)\n", Version(), matrixVersions())
	return nil
}

type ParseVersionCmd struct {
	Tokens []string `arg:"" help:"Version tokens such as v1.1 or r0.6.1."`
}

func (c *ParseVersionCmd) Run(rc *runContext) error {
	var errs []error
	for _, tok := range c.Tokens {
		v, err := mxapi.ParseVersion(tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		fmt.Fprintf(rc.out, "%s\t%s\n", tok, v)
	}
	return errors.Join(errs...)
}

type SelectPathCmd struct {
	Endpoint string   `arg:"" help:"Endpoint name, as printed by list."`
	Versions []string `help:"Versions the server supports." sep:"," placeholder:"v1.1,v1.2"`
}

func (c *SelectPathCmd) Run(rc *runContext) error {
	ep, err := lookup(c.Endpoint)
	if err != nil {
		return err
	}
	versions := make([]mxapi.Version, 0, len(c.Versions))
	for _, tok := range c.Versions {
		v, err := mxapi.ParseVersion(tok)
		if err != nil {
			return err
		}
		versions = append(versions, v)
	}

	meta := ep.Metadata()
	path, err := mxapi.SelectPath(versions, meta)
	if err != nil {
		return err
	}
	if meta.IsDeprecatedFor(versions) {
		rc.logger.Warn("endpoint is deprecated", slog.String("endpoint", meta.Name), slog.String("deprecated", meta.Deprecated.String()))
	}
	fmt.Fprintf(rc.out, "%s %s\n", meta.Method, path)
	return nil
}

type ListCmd struct{}

func (c *ListCmd) Run(rc *runContext) error {
	tw := tabwriter.NewWriter(rc.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tAUTH\tRATE LIMITED\tPATHS")
	for _, ep := range catalog() {
		meta := ep.Metadata()
		paths := make([]string, len(meta.Paths))
		for i, p := range meta.Paths {
			paths[i] = p.Template
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\n", meta.Name, meta.Method, meta.Authentication, meta.RateLimited, strings.Join(paths, " "))
	}
	return tw.Flush()
}

type OpenAPICmd struct {
	Format  string `help:"Output format." enum:"json,yaml" default:"json" short:"f"`
	Title   string `help:"Document title." default:"Matrix API"`
	Release string `help:"Document version." default:"v1.2"`
}

func (c *OpenAPICmd) Run(rc *runContext) error {
	spec, err := openapi.Build(c.Title, c.Release, catalog()...)
	if err != nil {
		return err
	}
	return openapi.Write(rc.out, spec, openapi.Format(c.Format))
}

type VersionsCmd struct {
	Homeserver string `arg:"" optional:"" help:"Homeserver base URL. Overrides the config file."`
}

func (c *VersionsCmd) Run(rc *runContext) error {
	cfg, err := config.Load(rc.configPath, func(cfg *config.Config) {
		if c.Homeserver != "" {
			cfg.Homeserver = c.Homeserver
		}
	})
	if err != nil {
		return err
	}

	opts := append(cfg.ClientOptions(),
		client.WithLogger(rc.logger),
		client.WithVersions(discovery.Bootstrap...))
	cl := client.New(cfg.Homeserver, opts...)

	ctx, cancel := context.WithTimeout(rc.ctx, cfg.Timeout)
	defer cancel()

	resp, err := client.Send(ctx, cl, discovery.GetSupportedVersions, discovery.GetSupportedVersionsRequest{})
	if err != nil {
		return err
	}
	for _, tok := range resp.Versions {
		if v, err := mxapi.ParseVersion(tok); err == nil {
			fmt.Fprintf(rc.out, "%s\t%s\n", tok, v)
		} else {
			fmt.Fprintf(rc.out, "%s\tunknown\n", tok)
		}
	}
	for _, feature := range slices.Sorted(maps.Keys(resp.UnstableFeatures)) {
		if resp.UnstableFeatures[feature] {
			fmt.Fprintf(rc.out, "%s\tunstable\n", feature)
		}
	}
	return nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func main() {
	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("mxapi"),
		kong.Description("Inspect and call versioned Matrix endpoints."),
		kong.UsageOnError(),
	)
	err := ctx.Run(&runContext{
		ctx:        context.Background(),
		out:        os.Stdout,
		logger:     newLogger(cli.Verbose),
		configPath: cli.Config,
	})
	ctx.FatalIfErrorf(err)
}
