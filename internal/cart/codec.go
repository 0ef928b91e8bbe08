package cart

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformed is returned by Decode when the document is not a JSON list.
var ErrMalformed = errors.New("cart: malformed persisted cart")

// maxStoredInt bounds integers read back from storage. Larger values are
// treated as malformed.
const maxStoredInt = math.MaxInt32

// IssueAction describes how Decode recovered from a bad entry.
type IssueAction string

const (
	IssueDropped    IssueAction = "dropped"
	IssueDefaulted  IssueAction = "defaulted"
	IssueReassigned IssueAction = "reassigned"
	IssueMerged     IssueAction = "merged"
)

// DecodeIssue records one corrective default applied while decoding.
type DecodeIssue struct {
	Index  int
	Field  string
	Action IssueAction
	Reason string
}

func (i DecodeIssue) String() string {
	return fmt.Sprintf("entry %d: %s %s (%s)", i.Index, i.Field, i.Action, i.Reason)
}

type wireItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Emoji       string `json:"emoji,omitempty"`
	Description string `json:"description,omitempty"`
	HeatScore   int    `json:"heat"`
	ImageRef    string `json:"image,omitempty"`
	Price       string `json:"price"`
	Quantity    int    `json:"quantity"`
}

// looseItem accepts the shapes older clients wrote: numeric ids and prices,
// quantities as strings.
type looseItem struct {
	ID          json.RawMessage `json:"id"`
	Name        string          `json:"name"`
	Emoji       string          `json:"emoji"`
	Description string          `json:"description"`
	HeatScore   json.RawMessage `json:"heat"`
	ImageRef    string          `json:"image"`
	Price       json.RawMessage `json:"price"`
	Quantity    json.RawMessage `json:"quantity"`
}

// Encode serializes the cart as a JSON list with prices as 2-decimal strings.
func Encode(items []LineItem) ([]byte, error) {
	out := make([]wireItem, 0, len(items))
	for _, item := range items {
		out = append(out, wireItem{
			ID:          item.ID,
			Name:        item.Name,
			Emoji:       item.Emoji,
			Description: item.Description,
			HeatScore:   item.HeatScore,
			ImageRef:    item.ImageRef,
			Price:       item.Price.StringFixed(PricePlaces),
			Quantity:    item.Quantity,
		})
	}
	return json.Marshal(out)
}

// Decode parses a persisted cart. Entries with no name or an unusable price are
// dropped; a missing or non-positive quantity becomes 1; missing or repeated ids
// are replaced via newID; entries repeating an earlier name are merged into it.
// Every correction is reported as a DecodeIssue. A document that is not a JSON
// list yields ErrMalformed.
func Decode(data []byte, newID func() string) ([]LineItem, []DecodeIssue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var (
		items  []LineItem
		issues []DecodeIssue
		ids    = make(map[string]struct{})
		byName = make(map[string]int)
	)
	issue := func(index int, field string, action IssueAction, reason string) {
		issues = append(issues, DecodeIssue{Index: index, Field: field, Action: action, Reason: reason})
	}

	for index, entry := range raw {
		var loose looseItem
		if err := json.Unmarshal(entry, &loose); err != nil {
			issue(index, "entry", IssueDropped, "not an object")
			continue
		}

		name := strings.TrimSpace(loose.Name)
		if name == "" {
			issue(index, "name", IssueDropped, "missing")
			continue
		}

		price, err := decodePrice(loose.Price)
		if err != nil {
			issue(index, "price", IssueDropped, err.Error())
			continue
		}

		quantity, ok := decodeInt(loose.Quantity)
		if !ok || quantity <= 0 {
			issue(index, "quantity", IssueDefaulted, "missing, out of range or not positive")
			quantity = 1
		}

		if pos, seen := byName[name]; seen {
			items[pos].Quantity = min(items[pos].Quantity+quantity, maxStoredInt)
			issue(index, "name", IssueMerged, "duplicate of "+items[pos].ID)
			continue
		}

		id := decodeID(loose.ID)
		if _, dup := ids[id]; id == "" || dup {
			id = newID()
			issue(index, "id", IssueReassigned, "missing or duplicate")
		}
		ids[id] = struct{}{}

		heat, _ := decodeInt(loose.HeatScore)
		byName[name] = len(items)
		items = append(items, LineItem{
			ID:          id,
			Name:        name,
			Emoji:       loose.Emoji,
			Description: loose.Description,
			HeatScore:   heat,
			ImageRef:    loose.ImageRef,
			Price:       price,
			Quantity:    quantity,
		})
	}
	return items, issues, nil
}

func decodePrice(raw json.RawMessage) (decimal.Decimal, error) {
	text, ok := rawScalar(raw)
	if !ok {
		return decimal.Zero, errors.New("missing")
	}
	price, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, errors.New("not a number")
	}
	if price.IsNegative() {
		return decimal.Zero, errors.New("negative")
	}
	return price.Round(PricePlaces), nil
}

// decodeInt accepts whole numbers within ±maxStoredInt, written as integers,
// decimals or exponents.
func decodeInt(raw json.RawMessage) (int, bool) {
	text, ok := rawScalar(raw)
	if !ok {
		return 0, false
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		if n > maxStoredInt || n < -maxStoredInt {
			return 0, false
		}
		return int(n), true
	}
	d, err := decimal.NewFromString(text)
	if err != nil || !d.Equal(d.Truncate(0)) || d.Abs().GreaterThan(decimal.NewFromInt(maxStoredInt)) {
		return 0, false
	}
	return int(d.IntPart()), true
}

func decodeID(raw json.RawMessage) string {
	text, _ := rawScalar(raw)
	return text
}

// rawScalar returns a JSON string or number as text.
func rawScalar(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", false
	}
	return n.String(), true
}
