// Command telecombase is the interactive shell for the telecom inventory
// server.
package main

import (
	"cmp"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/telecombase/internal/client/api"
	"github.com/atinyakov/telecombase/internal/client/session"
	"github.com/atinyakov/telecombase/internal/client/shell"
	"github.com/atinyakov/telecombase/internal/config"
	"github.com/atinyakov/telecombase/internal/logger"
)

var (
	version   string
	buildDate string
)

func main() {
	opts, err := config.ParseClient(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.Version {
		fmt.Printf("Telecombase Client\nVersion: %s\nBuild Date: %s\n", cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
		return
	}

	zl := zap.NewNop()
	if opts.Debug {
		if zl, err = logger.Development(); err != nil {
			log.Fatal(err)
		}
	}
	defer func() { _ = zl.Sync() }()

	httpClient, err := api.NewHTTPClient(opts.CAFile)
	if err != nil {
		log.Fatal(err)
	}

	store, err := session.Load(opts.SessionFile)
	if err != nil {
		log.Fatal(err)
	}

	// A stored URL wins over the default but not over an explicit -url or env.
	baseURL := opts.BaseURL
	if store.BaseURL != "" && !urlExplicit(os.Args[1:]) && os.Getenv("TELECOMBASE_URL") == "" {
		baseURL = store.BaseURL
	}

	client := api.New(baseURL,
		api.WithHTTPClient(httpClient),
		api.WithTimeout(opts.Timeout),
		api.WithLogger(zl),
	)
	// Stored sessions only apply to the server they were issued by.
	if store.BaseURL == client.BaseURL() {
		client.SetSession(store.Session())
	}

	sh := shell.New(client, store, os.Stdin, os.Stdout, zl)
	fmt.Printf("Connected to %s. Type 'help' for a list of commands.\n", client.BaseURL())
	if err := sh.Run(context.Background()); err != nil {
		zl.Error("shell stopped", zap.Error(err))
		os.Exit(1)
	}
}

// urlExplicit reports whether -url was given on the command line.
func urlExplicit(args []string) bool {
	for _, a := range args {
		name, _, _ := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if strings.HasPrefix(a, "-") && name == "url" {
			return true
		}
	}
	return false
}
