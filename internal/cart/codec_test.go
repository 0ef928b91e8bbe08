package cart

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for n := 0; n <= 8; n++ {
		items := make([]LineItem, 0, n)
		for i := 0; i < n; i++ {
			items = append(items, LineItem{
				ID:          fmt.Sprintf("01J%023d", i),
				Name:        fmt.Sprintf("Flavour %d", i),
				Emoji:       "🍨",
				Description: "Hundreds & thousands <b>in</b> vanilla cream",
				HeatScore:   60 + i,
				ImageRef:    "https://images.example.com/flavour.jpg?w=300&q=80",
				Price:       decimal.RequireFromString("6.50").Add(decimal.New(int64(i*17), -2)),
				Quantity:    i + 1,
			})
		}

		raw, err := Encode(items)
		if err != nil {
			t.Fatalf("encode %d items: %v", n, err)
		}
		got, issues, err := Decode(raw, func() string { t.Fatal("no ids should be generated"); return "" })
		if err != nil {
			t.Fatalf("decode %d items: %v", n, err)
		}
		if len(issues) != 0 {
			t.Fatalf("unexpected issues for a valid cart: %v", issues)
		}
		if n == 0 {
			if len(got) != 0 {
				t.Fatalf("expected empty cart, got %+v", got)
			}
			continue
		}
		if diff := cmp.Diff(items, got, decimalComparer); diff != "" {
			t.Fatalf("round trip of %d items differs (-want +got):\n%s", n, diff)
		}
	}
}

func TestEncodeWritesTwoDecimalPriceStrings(t *testing.T) {
	raw, err := Encode([]LineItem{{ID: "x", Name: "Lamington Cake", Price: decimal.NewFromInt(7), Quantity: 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `[{"id":"x","name":"Lamington Cake","heat":0,"price":"7.00","quantity":2}]`
	if string(raw) != want {
		t.Fatalf("unexpected encoding\n got: %s\nwant: %s", raw, want)
	}
}

func TestDecodeAcceptsLegacyShapes(t *testing.T) {
	// Older carts used millisecond timestamps as ids and kept the flavour fields as written.
	raw := `[{"name":"Tim Tam Crunch","emoji":"🍪","heat":92,"description":"Chocolate biscuit pieces in vanilla base","image":"https://img","price":"6.84","quantity":1,"id":1718000000000},
	         {"name":"Coffee Kangaroo","price":7.5,"quantity":"2","id":"1718000000001"}]`
	items, issues, err := Decode([]byte(raw), func() string { return "generated" })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if items[0].ID != "1718000000000" || items[0].HeatScore != 92 {
		t.Fatalf("unexpected first item %+v", items[0])
	}
	if items[1].Quantity != 2 || items[1].Price.StringFixed(2) != "7.50" {
		t.Fatalf("unexpected second item %+v", items[1])
	}
}

func TestDecodePolicy(t *testing.T) {
	raw := `[
		{"id":"a","name":"Lamington Cake","price":"7.00","quantity":1},
		{"id":"b","name":"Tim Tam Crunch","price":"6.80"},
		{"id":"c","name":"Pavlova Dreams","price":"7.10","quantity":0},
		{"id":"d","name":"Mango Sticky Rice","price":"7.20","quantity":1.5},
		{"id":"e","price":"7.00","quantity":1},
		{"id":"f","name":"Coffee Kangaroo","quantity":1},
		{"id":"g","name":"Vegemite Caramel","price":"-1.00","quantity":1},
		{"id":"a","name":"Fairy Bread Fusion","price":"6.90","quantity":1},
		{"name":"Salted Caramel Gelato","price":"8.00","quantity":1},
		{"id":"h","name":"Lamington Cake","price":"7.00","quantity":3},
		"garbage"
	]`
	next := 0
	newID := func() string { next++; return fmt.Sprintf("new-%d", next) }

	items, issues, err := Decode([]byte(raw), newID)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	type row struct {
		ID       string
		Name     string
		Quantity int
	}
	got := make([]row, 0, len(items))
	for _, item := range items {
		got = append(got, row{item.ID, item.Name, item.Quantity})
	}
	want := []row{
		{"a", "Lamington Cake", 4},
		{"b", "Tim Tam Crunch", 1},
		{"c", "Pavlova Dreams", 1},
		{"d", "Mango Sticky Rice", 1},
		{"new-1", "Fairy Bread Fusion", 1},
		{"new-2", "Salted Caramel Gelato", 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded cart differs (-want +got):\n%s", diff)
	}

	actions := make(map[IssueAction]int)
	for _, issue := range issues {
		actions[issue.Action]++
	}
	wantActions := map[IssueAction]int{
		IssueDefaulted:  3,
		IssueDropped:    4,
		IssueReassigned: 2,
		IssueMerged:     1,
	}
	if diff := cmp.Diff(wantActions, actions); diff != "" {
		t.Fatalf("issue summary differs (-want +got):\n%s\nissues: %v", diff, issues)
	}
}

func TestDecodeBoundsQuantities(t *testing.T) {
	raw := `[
		{"id":"a","name":"Lamington Cake","price":"7.00","quantity":1e20},
		{"id":"b","name":"Tim Tam Crunch","price":"6.80","quantity":"99999999999999999999"},
		{"id":"c","name":"Pavlova Dreams","price":"7.10","quantity":2147483647,"heat":-1e30},
		{"id":"d","name":"Pavlova Dreams","price":"7.10","quantity":2147483647}
	]`
	items, issues, err := Decode([]byte(raw), func() string { return "unused" })
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got := make(map[string]int, len(items))
	for _, item := range items {
		got[item.Name] = item.Quantity
		if item.HeatScore != 0 {
			t.Errorf("%s: out of range heat score kept as %d", item.Name, item.HeatScore)
		}
	}
	want := map[string]int{
		"Lamington Cake": 1,
		"Tim Tam Crunch": 1,
		"Pavlova Dreams": math.MaxInt32,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("quantities differ (-want +got):\n%s", diff)
	}
	if len(issues) != 3 {
		t.Fatalf("expected 2 defaulted and 1 merged issue, got %v", issues)
	}
}

func TestDecodeMalformedDocument(t *testing.T) {
	for _, raw := range []string{"{", `{"items":[]}`, `"cart"`} {
		if _, _, err := Decode([]byte(raw), nil); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%q: expected ErrMalformed, got %v", raw, err)
		}
	}
	items, _, err := Decode([]byte("  "), nil)
	if err != nil || items != nil {
		t.Fatalf("blank document should decode to an empty cart, got %v %v", items, err)
	}
}
