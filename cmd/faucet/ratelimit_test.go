package main

import (
	"context"
	"testing"
	"time"
)

func TestRequestLimiterRateLimitsWithin24Hours(t *testing.T) {
	limiter, err := openRequestLimiter(t.TempDir() + "/faucet.db")
	if err != nil {
		t.Fatalf("openRequestLimiter: %v", err)
	}
	defer limiter.Close()

	ctx := context.Background()
	addr := "bcrt1qexampleaddress"
	t0 := time.Unix(1_700_000_000, 0)

	limited, err := limiter.recentlyFunded(ctx, addr, t0)
	if err != nil {
		t.Fatalf("recentlyFunded: %v", err)
	}
	if limited {
		t.Fatal("expected a never-seen address to not be rate-limited")
	}

	if err := limiter.recordRequest(ctx, addr, t0); err != nil {
		t.Fatalf("recordRequest: %v", err)
	}

	limited, err = limiter.recentlyFunded(ctx, addr, t0.Add(23*time.Hour))
	if err != nil {
		t.Fatalf("recentlyFunded: %v", err)
	}
	if !limited {
		t.Fatal("expected the address to still be rate-limited 23h later")
	}

	limited, err = limiter.recentlyFunded(ctx, addr, t0.Add(25*time.Hour))
	if err != nil {
		t.Fatalf("recentlyFunded: %v", err)
	}
	if limited {
		t.Fatal("expected the address to no longer be rate-limited 25h later")
	}
}

func TestRequestLimiterTracksAddressesIndependently(t *testing.T) {
	limiter, err := openRequestLimiter(t.TempDir() + "/faucet.db")
	if err != nil {
		t.Fatalf("openRequestLimiter: %v", err)
	}
	defer limiter.Close()

	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)

	if err := limiter.recordRequest(ctx, "addr-a", now); err != nil {
		t.Fatalf("recordRequest: %v", err)
	}

	limited, err := limiter.recentlyFunded(ctx, "addr-b", now)
	if err != nil {
		t.Fatalf("recentlyFunded: %v", err)
	}
	if limited {
		t.Fatal("a funding request for one address must not rate-limit a different address")
	}
}
