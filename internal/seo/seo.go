// Package seo builds page metadata and schema.org payloads for the storefront.
package seo

import (
	"encoding/json"
	"html/template"

	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
)

// Currency is the ISO code every offer is priced in.
const Currency = "AUD"

// Meta is the head metadata for a page.
type Meta struct {
	Title       string
	Description string
	OGImage     string
}

// Script marshals payloads into a JSON-LD body. encoding/json escapes <, > and
// &, so the result is safe inside a script element.
func Script(payloads ...map[string]any) template.JS {
	var v any = payloads
	if len(payloads) == 1 {
		v = payloads[0]
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return template.JS(raw)
}

// Organization returns a minimal Organization schema.
func Organization(name, url, logoURL string) map[string]any {
	m := map[string]any{
		"@context": "https://schema.org",
		"@type":    "Organization",
		"name":     name,
	}
	if url != "" {
		m["url"] = url
	}
	if logoURL != "" {
		m["logo"] = logoURL
	}
	return m
}

// Menu lists the priced flavours as products with offers. Prices are the ones
// drawn for the current page load.
func Menu(name string, items []catalogue.Item) map[string]any {
	elements := make([]map[string]any, 0, len(items))
	for i, item := range items {
		product := map[string]any{
			"@type":       "Product",
			"name":        item.Name,
			"description": item.PlainText,
			"offers": map[string]any{
				"@type":         "Offer",
				"price":         item.Price.StringFixed(2),
				"priceCurrency": Currency,
			},
		}
		if item.ImageRef != "" {
			product["image"] = item.ImageRef
		}
		elements = append(elements, map[string]any{
			"@type":    "ListItem",
			"position": i + 1,
			"item":     product,
		})
	}
	return map[string]any{
		"@context":        "https://schema.org",
		"@type":           "ItemList",
		"name":            name,
		"itemListElement": elements,
	}
}
