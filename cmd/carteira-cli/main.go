package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"carteira/internal/cli"
	"carteira/internal/client"
	"carteira/internal/core"
	applog "carteira/internal/log"
)

const usage = `Commands:
  list              show transactions, newest first
  balance           show the derived balance
  add               add a transaction (prompts for fields)
  reload            refetch from the server
  quit              exit
`

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentClient)
	cfg := cli.LoadAndValidateConfig(logger)

	api := client.NewAPI(cfg.BaseURL, cfg.APIToken)
	controller := client.NewController(api)

	ctx := context.Background()
	if err := controller.Load(ctx); err != nil {
		// Keep going with an empty state; reload retries.
		fmt.Fprintf(os.Stderr, "could not load transactions: %v\n", err)
	}

	fmt.Printf("carteira — %s\n", cfg.BaseURL)
	fmt.Print(usage)

	scanner := bufio.NewScanner(os.Stdin)
	form := client.NewForm()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "list":
			printRecords(controller.Records())
		case "balance":
			fmt.Printf("Saldo: %s\n", core.FormatReais(controller.Balance().Cents))
		case "add":
			runAdd(ctx, scanner, form, controller)
		case "reload":
			if err := controller.Load(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
				continue
			}
			fmt.Printf("%d transactions loaded\n", len(controller.Records()))
		case "quit", "exit":
			return
		case "":
		default:
			fmt.Print(usage)
		}
	}
}

func runAdd(ctx context.Context, scanner *bufio.Scanner, form *client.Form, controller *client.Controller) {
	form.Description = prompt(scanner, "description")
	form.AmountText = prompt(scanner, "amount")
	if t := prompt(scanner, "type [entrada]"); t != "" {
		form.Type = t
	}

	record, err := form.Submit(ctx, controller)
	if err != nil {
		if errors.Is(err, client.ErrUserInput) {
			// Fields survive so the user can fix the bad one.
			fmt.Fprintf(os.Stderr, "invalid entry: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "submit failed: %v\n", err)
		}
		return
	}

	fmt.Printf("Saved #%d — saldo %s\n", record.ID, core.FormatReais(controller.Balance().Cents))
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Printf("%s: ", label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func printRecords(records []client.Record) {
	if len(records) == 0 {
		fmt.Println("no transactions")
		return
	}
	for _, r := range records {
		sign := "+"
		if r.Type == client.TypeOutgoing {
			sign = "-"
		}
		fmt.Printf("%4d  %s  %s%s  %-10s  %s\n",
			r.ID,
			r.Date.Format("2006-01-02"),
			sign,
			core.FormatReais(int64(r.Amount*100+0.5)),
			r.Type,
			r.Description)
	}
}
