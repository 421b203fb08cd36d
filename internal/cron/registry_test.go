package cron

import (
	"context"
	"testing"
	"time"
)

type namedJob string

func (n namedJob) Name() string              { return string(n) }
func (n namedJob) Run(context.Context) error { return nil }

func TestRegistryOrderAndDuplicates(t *testing.T) {
	registry := NewRegistry(
		namedJob("booking-hold-expiry"),
		nil,
		Every(namedJob("payout-status-sync"), 10*time.Minute),
		namedJob("booking-hold-expiry"),
		Every(nil, time.Hour),
	)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].Name() != "booking-hold-expiry" || jobs[1].Name() != "payout-status-sync" {
		t.Fatalf("unexpected order %s, %s", jobs[0].Name(), jobs[1].Name())
	}
	if cadenceOf(jobs[0]) != 0 || cadenceOf(jobs[1]) != 10*time.Minute {
		t.Fatalf("cadence lost: %s / %s", cadenceOf(jobs[0]), cadenceOf(jobs[1]))
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("Jobs exposed the internal slice")
	}
}
