// Command certgen writes a development CA and a server certificate signed
// by it into a directory (./certs by default):
//
//	certs/ca.crt  certs/ca.key          pass ca.crt to the shell with -ca
//	certs/server.crt  certs/server.key  pass to the server with -tls-cert/-tls-key
//
// An existing CA in the directory is reused so previously distributed
// ca.crt files stay valid.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atinyakov/telecombase/internal/certgen"
)

const (
	caValidity     = 10 * 365 * 24 * time.Hour
	serverValidity = 365 * 24 * time.Hour
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "certgen:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	flags := flag.NewFlagSet("certgen", flag.ContinueOnError)
	dir := flags.String("dir", "certs", "output directory")
	hosts := flags.String("hosts", "localhost,127.0.0.1", "comma-separated DNS names and IPs for the server certificate")
	if err := flags.Parse(args); err != nil {
		return err
	}

	ca, created, err := loadOrCreateCA(*dir)
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(out, "created CA %s\n", filepath.Join(*dir, "ca.crt"))
	}

	certPEM, keyPEM, err := ca.IssueServerCertificate(splitHosts(*hosts), serverValidity)
	if err != nil {
		return err
	}
	if err := certgen.WritePair(*dir, "server", certPEM, keyPEM); err != nil {
		return err
	}
	fmt.Fprintf(out, "issued server certificate %s\n", filepath.Join(*dir, "server.crt"))
	return nil
}

func loadOrCreateCA(dir string) (*certgen.Authority, bool, error) {
	certPath := filepath.Join(dir, "ca.crt")
	keyPath := filepath.Join(dir, "ca.key")

	ca, err := certgen.LoadCA(certPath, keyPath)
	if err == nil {
		return ca, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	ca, err = certgen.GenerateCA("Telecombase Dev CA", caValidity)
	if err != nil {
		return nil, false, err
	}
	keyPEM, err := ca.KeyPEM()
	if err != nil {
		return nil, false, err
	}
	if err := certgen.WritePair(dir, "ca", ca.CertPEM(), keyPEM); err != nil {
		return nil, false, err
	}
	return ca, true, nil
}

func splitHosts(s string) []string {
	var hosts []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hosts = append(hosts, h)
		}
	}
	return hosts
}
