package handlers

import (
	"encoding/json"
	"net/url"
	"reflect"
	"testing"

	"sales-dashboard/internal/models"
)

var defaultSel = models.Selection{
	Regions:    []string{"East", "West"},
	Categories: []string{"Furniture"},
	YearFrom:   2014,
	YearTo:     2017,
}

func TestSelectionFromQuery(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    models.Selection
		wantErr bool
	}{
		{name: "empty query", query: "", want: defaultSel},
		{
			name:  "repeated values",
			query: "region=East&region=South",
			want:  models.Selection{Regions: []string{"East", "South"}, Categories: []string{"Furniture"}, YearFrom: 2014, YearTo: 2017},
		},
		{
			name:  "comma separated with spaces",
			query: "category=Furniture,%20Technology",
			want:  models.Selection{Regions: []string{"East", "West"}, Categories: []string{"Furniture", "Technology"}, YearFrom: 2014, YearTo: 2017},
		},
		{
			name:  "blank category",
			query: "category=",
			want:  models.Selection{Regions: []string{"East", "West"}, Categories: []string{}, YearFrom: 2014, YearTo: 2017},
		},
		{
			name:  "years",
			query: "year_from=2015&year_to=2016",
			want:  models.Selection{Regions: []string{"East", "West"}, Categories: []string{"Furniture"}, YearFrom: 2015, YearTo: 2016},
		},
		{name: "blank year keeps default", query: "year_to=", want: defaultSel},
		{name: "bad year", query: "year_to=2016.5", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			if err != nil {
				t.Fatal(err)
			}

			got, err := selectionFromQuery(q, defaultSel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selection = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFilterSignals_Selection(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		want    models.Selection
		wantErr bool
	}{
		{name: "nothing sent", json: `{}`, want: defaultSel},
		{
			name: "numbers",
			json: `{"regions":["West"],"yearFrom":2015,"yearTo":2016}`,
			want: models.Selection{Regions: []string{"West"}, Categories: []string{"Furniture"}, YearFrom: 2015, YearTo: 2016},
		},
		{
			name: "numeric strings",
			json: `{"yearFrom":" 2015 ","yearTo":"2016"}`,
			want: models.Selection{Regions: []string{"East", "West"}, Categories: []string{"Furniture"}, YearFrom: 2015, YearTo: 2016},
		},
		{name: "null and blank years", json: `{"yearFrom":null,"yearTo":""}`, want: defaultSel},
		{
			name: "empty categories",
			json: `{"categories":[]}`,
			want: models.Selection{Regions: []string{"East", "West"}, Categories: []string{}, YearFrom: 2014, YearTo: 2017},
		},
		{name: "not a number", json: `{"yearFrom":"later"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s filterSignals
			err := json.Unmarshal([]byte(tt.json), &s)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := s.selection(defaultSel); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("selection = %+v, want %+v", got, tt.want)
			}
		})
	}
}
