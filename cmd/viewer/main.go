package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joeblew999/plat-ogc/internal/config"
	"github.com/joeblew999/plat-ogc/internal/mapview"
	"github.com/joeblew999/plat-ogc/internal/server"
	"github.com/joeblew999/plat-ogc/pkg/ogcclient"
)

// Options defines all CLI flags and env vars for the viewer server.
// Flags: --host, --port, --api-url, --parallelism, --sessions, --item-limit, --log-level
// Env vars: SERVICE_HOST, SERVICE_PORT, SERVICE_API_URL, ...
// Map surface defaults are read from VIEWER_MAP_* (see internal/config).
type Options struct {
	Host        string `doc:"Host to bind to" default:"0.0.0.0"`
	Port        int    `doc:"Port to listen on" short:"p" default:"8087"`
	APIURL      string `doc:"OGC API root URL" name:"api-url" default:"http://localhost:5000"`
	Parallelism int    `doc:"Concurrent item requests per session" default:"4"`
	Sessions    int    `doc:"Maximum number of mounted viewer sessions" default:"128"`
	ItemLimit   int    `doc:"Limit sent on item requests (0 for none)" default:"0"`
	LogLevel    string `doc:"Log level: debug, info, warn, error" default:"info"`
}

func setupLogger(opts *Options) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func newServer(opts *Options) (*server.Server, error) {
	conf, err := config.Parse()
	if err != nil {
		return nil, err
	}

	return server.New(server.Config{
		Host:        opts.Host,
		Port:        fmt.Sprintf("%d", opts.Port),
		APIURL:      opts.APIURL,
		Parallelism: opts.Parallelism,
		MaxSessions: opts.Sessions,
		ItemLimit:   opts.ItemLimit,
		Surface:     conf.Map.Surface(),
		Logger:      setupLogger(opts),
	})
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var srv *server.Server
		var httpServer *http.Server

		hooks.OnStart(func() {
			var err error
			srv, err = newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
				os.Exit(1)
			}

			addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
			displayHost := opts.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, opts.Port)

			fmt.Println()
			fmt.Printf("plat-ogc viewer starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  OGC API: %s\n", opts.APIURL)
			fmt.Println()
			fmt.Printf("  Viewer:  %s/viewer\n", baseURL)
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Printf("  Metrics: %s/metrics\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv}
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("server error", slog.Any("error", err))
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
			srv.Close()
		})
	})

	cli.Root().Use = "viewer"
	cli.Root().Short = "Map viewer for OGC API Features collections"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			srv, err := newServer(opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
				os.Exit(1)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error marshaling spec: %v\n", err)
				os.Exit(1)
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	// collections subcommand: load the remote collections once and print them
	collectionsCmd := &cobra.Command{
		Use:   "collections",
		Short: "Load every collection of the OGC API and print a summary",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			logger := setupLogger(opts)
			timeout, _ := cmd.Flags().GetDuration("timeout")

			baseURL, err := url.Parse(opts.APIURL)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: invalid api url: %v\n", err)
				os.Exit(1)
			}

			client := ogcclient.New(ogcclient.WithBaseURL(baseURL), ogcclient.WithItemLimit(opts.ItemLimit))
			c := mapview.New(client, mapview.WithLogger(logger), mapview.WithParallelism(opts.Parallelism))

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			c.Mount(ctx)
			defer c.Unmount()
			if err := c.Wait(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			state, err := c.Snapshot()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tFEATURES\tSTATUS")
			for _, o := range state.Overlays {
				status := "ok"
				if o.Error != "" {
					status = o.Error
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", o.ID, o.Title, o.Features, status)
			}
			w.Flush()
		}),
	}
	collectionsCmd.Flags().Duration("timeout", time.Minute, "Maximum time to wait for every collection")
	cli.Root().AddCommand(collectionsCmd)

	cli.Run()
}
