package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "b3wallet"
	app.Usage = "Offline tool to derive the subaccounts, identifiers and addresses of a b3walletd wallet"
	app.Commands = append(
		app.Commands,
		&subaccount,
		&identifier,
		&address,
		&contractAddress,
		&gentoken,
		&issuetoken,
	)
	return app
}

func printJSON(w io.Writer, resp interface{}) error {
	buf, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(buf))
	return err
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[b3wallet] %v\n", err)
	os.Exit(1)
}
