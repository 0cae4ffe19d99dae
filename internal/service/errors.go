package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAmount     = errors.New("transfer amount must be positive")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknown           = errors.New("unknown error")
)

// AlreadyDoledError rejects a claim made before the cooldown window has
// elapsed. Remaining is the wait until the next eligible claim.
type AlreadyDoledError struct {
	Remaining time.Duration
}

func (e *AlreadyDoledError) Error() string {
	h, m, s := e.Countdown()
	return fmt.Sprintf("already doled, next claim in %dh %02dm %02ds", h, m, s)
}

// Countdown decomposes the remaining wait into clock units for display.
// The cooldown is under a day, so hours carry the largest unit.
func (e *AlreadyDoledError) Countdown() (hours, minutes, seconds int) {
	d := e.Remaining.Round(time.Second)
	hours = int(d / time.Hour)
	d -= time.Duration(hours) * time.Hour
	minutes = int(d / time.Minute)
	d -= time.Duration(minutes) * time.Minute
	seconds = int(d / time.Second)
	return hours, minutes, seconds
}
