// Command keytool creates wallets and signs the digests the ledger verifies.
//
//	keytool generate
//	keytool address     -key <hex>
//	keytool sign-flight -key <hex> -flight <number> -departure <unix> -nonce <n>
//	keytool sign-refund -key <hex> -amount <decimal> -nonce <n>
//	keytool sign-login  -key <hex> [-issued-at <unix>]
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/big"
	"os"
	"time"

	"github.com/cx-tal-miterani/flight-seats-distributor/pkg/wallet"
)

var errUsage = errors.New("usage: keytool generate|address|sign-flight|sign-refund|sign-login [flags]")

func main() {
	if err := run(os.Args[1:], os.Stdout, time.Now); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, now func() time.Time) error {
	if len(args) == 0 {
		return errUsage
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	key := fs.String("key", "", "hex private key")
	flightNumber := fs.String("flight", "", "flight number")
	departure := fs.Int64("departure", 0, "departure unix time")
	nonce := fs.Uint64("nonce", 0, "nonce")
	amount := fs.String("amount", "", "refund amount")
	issuedAt := fs.Int64("issued-at", 0, "login timestamp, defaults to now")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	if args[0] == "generate" {
		w, err := wallet.NewWallet()
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "private_key=%s\naddress=%s\n", w.PrivateKeyHex(), w.Address())
		return nil
	}

	w, err := wallet.FromPrivateKeyHex(*key)
	if err != nil {
		return err
	}

	var digest [32]byte
	switch args[0] {
	case "address":
		fmt.Fprintf(out, "address=%s\n", w.Address())
		return nil

	case "sign-flight":
		id, err := wallet.FlightID(*flightNumber, *departure)
		if err != nil {
			return err
		}
		if digest, err = wallet.CreateFlightDigest(id, w.Address(), *nonce); err != nil {
			return err
		}
		fmt.Fprintf(out, "flight_id=0x%s\n", hex.EncodeToString(id[:]))

	case "sign-refund":
		value, ok := new(big.Int).SetString(*amount, 10)
		if !ok {
			return fmt.Errorf("invalid amount %q", *amount)
		}
		if digest, err = wallet.RefundDigest(w.Address(), value, *nonce); err != nil {
			return err
		}

	case "sign-login":
		if *issuedAt == 0 {
			*issuedAt = now().Unix()
		}
		if digest, err = wallet.LoginDigest(w.Address(), *issuedAt); err != nil {
			return err
		}
		fmt.Fprintf(out, "issued_at=%d\n", *issuedAt)

	default:
		return errUsage
	}

	sig, err := w.Sign(digest)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "address=%s\nsignature=%s\n", w.Address(), hex.EncodeToString(sig))
	return nil
}
