package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"sales-dashboard/internal/models"
)

// selectionFromQuery overlays the query parameters on def. An absent
// parameter keeps the default; a present but blank region or category
// parameter selects nothing. Repeated and comma-separated values both work.
func selectionFromQuery(q url.Values, def models.Selection) (models.Selection, error) {
	sel := def

	if values, ok := q["region"]; ok {
		sel.Regions = splitValues(values)
	}
	if values, ok := q["category"]; ok {
		sel.Categories = splitValues(values)
	}

	var err error
	if sel.YearFrom, err = yearParam(q, "year_from", def.YearFrom); err != nil {
		return sel, err
	}
	if sel.YearTo, err = yearParam(q, "year_to", def.YearTo); err != nil {
		return sel, err
	}
	return sel, nil
}

func splitValues(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func yearParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return year, nil
}

// filterSignals is the part of the page's signals the server reads. A nil
// slice or unset year means the client did not send it.
type filterSignals struct {
	Regions    []string   `json:"regions"`
	Categories []string   `json:"categories"`
	YearFrom   signalYear `json:"yearFrom"`
	YearTo     signalYear `json:"yearTo"`
}

func (s filterSignals) selection(def models.Selection) models.Selection {
	sel := def
	if s.Regions != nil {
		sel.Regions = s.Regions
	}
	if s.Categories != nil {
		sel.Categories = s.Categories
	}
	if s.YearFrom.set {
		sel.YearFrom = s.YearFrom.value
	}
	if s.YearTo.set {
		sel.YearTo = s.YearTo.value
	}
	return sel
}

// signalYear accepts a JSON number or a numeric string, since bound number
// inputs can report either. null and "" leave it unset.
type signalYear struct {
	value int
	set   bool
}

func (y *signalYear) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var n json.Number
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s = strings.TrimSpace(s); s == "" {
			return nil
		}
		n = json.Number(s)
	} else {
		n = json.Number(data)
	}

	f, err := n.Float64()
	if err != nil {
		return fmt.Errorf("year %q is not a number", string(n))
	}
	y.value, y.set = int(f), true
	return nil
}
