package seo

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
)

func TestMenuListsOffers(t *testing.T) {
	priced, err := catalogue.Load(catalogue.FixedPrices{Fallback: decimal.RequireFromString("7.5")})
	if err != nil {
		t.Fatalf("catalogue.Load: %v", err)
	}
	raw := Script(Menu("Flavours", priced.Items()))

	var doc struct {
		Type     string `json:"@type"`
		Elements []struct {
			Position int `json:"position"`
			Item     struct {
				Name   string `json:"name"`
				Offers struct {
					Price    string `json:"price"`
					Currency string `json:"priceCurrency"`
				} `json:"offers"`
			} `json:"item"`
		} `json:"itemListElement"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Type != "ItemList" || len(doc.Elements) != len(priced.Items()) {
		t.Fatalf("unexpected list: %+v", doc)
	}
	first := doc.Elements[0]
	if first.Position != 1 || first.Item.Offers.Price != "7.50" || first.Item.Offers.Currency != Currency {
		t.Fatalf("unexpected first element: %+v", first)
	}
}

func TestScriptEscapesMarkup(t *testing.T) {
	got := string(Script(Organization("</script><b>", "", "")))
	if strings.Contains(got, "</script>") {
		t.Fatalf("script payload not escaped: %s", got)
	}
}

func TestScriptWrapsMultiplePayloads(t *testing.T) {
	got := string(Script(Organization("A", "", ""), Organization("B", "https://b.example", "")))
	if !strings.HasPrefix(got, "[") {
		t.Fatalf("expected array payload, got %s", got)
	}
	if !strings.Contains(got, `"url":"https://b.example"`) {
		t.Fatalf("missing url: %s", got)
	}
}
