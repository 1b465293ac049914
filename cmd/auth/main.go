// Command auth runs the SilverBridge authentication service. Configuration
// comes from the environment; the flags only cover one-off operator tasks.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/silverbridge/backend/internal/auth/app"
	"github.com/silverbridge/backend/pkg/cryptox"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	var (
		showVersion bool
		checkConfig bool
		genSecret   bool
		genKey      string
	)

	flags := pflag.NewFlagSet("auth", pflag.ContinueOnError)
	flags.BoolVar(&showVersion, "version", false, "print the version and exit")
	flags.BoolVar(&checkConfig, "check-config", false, "validate the environment configuration and exit")
	flags.BoolVar(&genSecret, "gen-secret", false, "print a new base64 AUTH_JWT_SECRET and exit")
	flags.StringVar(&genKey, "gen-key", "", "write a new Ed25519 PKCS8 key for AUTH_PRIVATE_KEY_FILE to this path and exit")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	switch {
	case showVersion:
		_, err := fmt.Fprintln(stdout, "auth", app.BuildVersion)
		return err

	case genSecret:
		secret, err := cryptox.GenerateHMACSecret()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, secret)
		return err

	case genKey != "":
		pemKey, err := cryptox.GenerateEd25519Key()
		if err != nil {
			return err
		}
		// O_EXCL: never overwrite a key that may be signing live tokens.
		f, err := os.OpenFile(genKey, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err != nil {
			return fmt.Errorf("create key file: %w", err)
		}
		if _, err := f.Write(pemKey); err != nil {
			_ = f.Close()
			return fmt.Errorf("write key file: %w", err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		_, err = fmt.Fprintf(stdout, "wrote Ed25519 signing key to %s\n", genKey)
		return err

	case checkConfig:
		if err := app.LoadConfig().Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}
		_, err := fmt.Fprintln(stdout, "configuration ok")
		return err
	}

	application, err := app.New(app.LoadConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return application.Run()
}
