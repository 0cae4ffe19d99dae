package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/granarybot/granary/internal/model"
	"github.com/granarybot/granary/internal/service"
)

func (app *application) run(ctx context.Context, command string, args []string) error {
	app.logger.Info("received command", "command", command, "args", args)

	switch command {
	case "balance":
		if len(args) != 1 {
			usage()
			return fmt.Errorf("balance takes exactly one argument")
		}
		return app.balanceCommand(ctx, args[0])
	case "send":
		if len(args) != 3 {
			usage()
			return fmt.Errorf("send takes exactly three arguments")
		}
		amount, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[2])
		}
		return app.sendCommand(ctx, args[0], args[1], amount)
	case "harvest":
		if len(args) != 1 {
			usage()
			return fmt.Errorf("harvest takes exactly one argument")
		}
		return app.harvestCommand(ctx, args[0])
	case "top":
		return app.topCommand(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func (app *application) balanceCommand(ctx context.Context, id string) error {
	balance, err := app.ledger.Balance(ctx, id)
	if err != nil {
		return err
	}
	fmt.Printf("Balance for %s: %d\n", id, balance)
	return nil
}

func (app *application) sendCommand(ctx context.Context, source, destination string, amount int64) error {
	receipt, err := app.ledger.Transfer(ctx, source, destination, amount)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount):
			fmt.Println("The amount must be a positive number.")
			return nil
		case errors.Is(err, service.ErrInsufficientFunds):
			fmt.Println("You do not have enough cobs.")
			return nil
		default:
			return err
		}
	}
	fmt.Printf("Sent %d cobs from %s to %s. Balances: %s=%d %s=%d\n",
		amount, source, destination,
		source, receipt.SourceBalance, destination, receipt.DestinationBalance)
	return nil
}

func (app *application) harvestCommand(ctx context.Context, id string) error {
	receipt, err := app.ledger.Dole(ctx, id)
	if err != nil {
		var doled *service.AlreadyDoledError
		switch {
		case errors.As(err, &doled):
			h, m, s := doled.Countdown()
			fmt.Printf("You have already harvested today. Come back in %dh %02dm %02ds.\n", h, m, s)
			return nil
		case errors.Is(err, service.ErrUnknown):
			fmt.Println("An unknown error occurred.")
			return err
		default:
			return err
		}
	}

	switch receipt.Tier {
	case model.TierLucky:
		fmt.Printf("A golden harvest! You reaped %d cobs.\n", receipt.Amount)
	case model.TierUnfortunate:
		fmt.Printf("A poor harvest. Only %d cobs today.\n", receipt.Amount)
	default:
		fmt.Printf("Here is your daily dole of %d cobs.\n", receipt.Amount)
	}
	fmt.Printf("Your balance is now %d.\n", receipt.Balance)
	return nil
}

func (app *application) topCommand(ctx context.Context) error {
	entries, err := app.ledger.TopBalances(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("The granary is empty.")
		return nil
	}
	for i, e := range entries {
		fmt.Printf("%2d. %-24s %d\n", i+1, e.ID, e.Balance)
	}
	return nil
}
