package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	invoiceNumberFields  = []string{"subtotal", "tax_amount", "total_amount"}
	lineItemNumberFields = []string{"quantity", "unit_price", "total", "sustainability_score"}

	reThousands = regexp.MustCompile(`^-?\d{1,3}(,\d{3})+(\.\d+)?$`)
)

// Repair coerces the usual model slips in numeric fields so a record can pass
// validation: numeric strings become numbers, blank strings become null and a
// null line_items list is dropped. It returns the rewritten record and a list
// of the changes made, e.g. "/line_items/0/quantity: string -> number".
func Repair(raw json.RawMessage) (json.RawMessage, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, err
	}

	var changes []string
	for _, k := range invoiceNumberFields {
		if c := coerceNumber(m, k, "/"+k); c != "" {
			changes = append(changes, c)
		}
	}

	switch items := m["line_items"].(type) {
	case nil:
		if _, ok := m["line_items"]; ok {
			delete(m, "line_items")
			changes = append(changes, "/line_items: null -> dropped")
		}
	case []any:
		for i, it := range items {
			obj, ok := it.(map[string]any)
			if !ok {
				continue
			}
			for _, k := range lineItemNumberFields {
				if c := coerceNumber(obj, k, fmt.Sprintf("/line_items/%d/%s", i, k)); c != "" {
					changes = append(changes, c)
				}
			}
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, changes, nil
}

func coerceNumber(m map[string]any, key, path string) string {
	s, ok := m[key].(string)
	if !ok {
		return ""
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		m[key] = nil
		return path + ": blank -> null"
	}
	if f, ok := parseAmount(s); ok {
		m[key] = f
		return path + ": string -> number"
	}
	return ""
}

// parseAmount accepts plain decimals with an optional currency symbol and
// comma thousands separators ("$1,234.50").
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(strings.Trim(s, "$€£¥"))
	if reThousands.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
