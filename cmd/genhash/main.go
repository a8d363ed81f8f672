package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"accounts.backend/pkg/crypto"
)

var errPasswordRequired = errors.New("password argument is required")

// runGenHash prints a bcrypt hash of the first positional argument, suitable
// for seeding the accounts.password column by hand
func runGenHash(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("genhash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cost := fs.Int("cost", crypto.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 || fs.Arg(0) == "" {
		return errPasswordRequired
	}

	hash, err := crypto.NewBcryptHasher(*cost).Hash(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	_, err = fmt.Fprintln(out, hash)
	return err
}

func main() {
	if err := runGenHash(os.Args[1:], os.Stdout); err != nil {
		log.Fatal(err)
	}
}
