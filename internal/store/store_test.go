package store

import (
	"testing"
	"time"
)

func TestBuildFilterWhereEmpty(t *testing.T) {
	where, args := buildFilterWhere(Filter{})
	if where != "" {
		t.Errorf("expected empty WHERE clause, got %q", where)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %d", len(args))
	}
}

func TestBuildFilterWhereSingle(t *testing.T) {
	where, args := buildFilterWhere(Filter{Category: "crypto"})
	if where != "WHERE asset_category = $1" {
		t.Errorf("unexpected clause: %q", where)
	}
	if len(args) != 1 || args[0] != "crypto" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildFilterWhereAll(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	where, args := buildFilterWhere(Filter{
		Category:  "metal",
		Asset:     "XAU",
		Sentiment: "positive",
		From:      from,
		To:        to,
	})

	want := "WHERE asset_category = $1 AND $2 = ANY(related_assets) AND sentiment_label = $3 AND published_at >= $4 AND published_at <= $5"
	if where != want {
		t.Errorf("clause mismatch:\n got %q\nwant %q", where, want)
	}
	if len(args) != 5 {
		t.Fatalf("expected 5 args, got %d", len(args))
	}
	if args[0] != "metal" || args[1] != "XAU" || args[2] != "positive" {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildFilterWherePlaceholderOrder(t *testing.T) {
	// Placeholders must stay dense and ordered when only some filters
	// are set.
	where, args := buildFilterWhere(Filter{Asset: "BTC", Sentiment: "negative"})
	want := "WHERE $1 = ANY(related_assets) AND sentiment_label = $2"
	if where != want {
		t.Errorf("clause mismatch:\n got %q\nwant %q", where, want)
	}
	if len(args) != 2 {
		t.Errorf("expected 2 args, got %d", len(args))
	}
}
