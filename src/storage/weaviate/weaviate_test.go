package weaviate

import (
	"testing"

	"github.com/weaviate/weaviate/entities/models"
)

func TestParseResults(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{
				"DocumentChunk": []interface{}{
					map[string]interface{}{
						"content":     "first",
						"_additional": map[string]interface{}{"id": "a", "distance": 0.1},
					},
					"not an object",
					map[string]interface{}{
						"content": "no additional",
					},
				},
			},
		},
	}

	got := parseResults(resp, "DocumentChunk", "distance")
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].ID != "a" || got[0].Score != 0.1 || got[0].Properties["content"] != "first" {
		t.Errorf("unexpected first result: %+v", got[0])
	}
	if _, ok := got[0].Properties["_additional"]; ok {
		t.Error("_additional should not be part of the properties")
	}
	if got[1].ID != "" || got[1].Properties["content"] != "no additional" {
		t.Errorf("unexpected second result: %+v", got[1])
	}
}

func TestParseResultsMissingClass(t *testing.T) {
	resp := &models.GraphQLResponse{
		Data: map[string]models.JSONObject{
			"Get": map[string]interface{}{"Other": []interface{}{}},
		},
	}
	if got := parseResults(resp, "DocumentChunk", "distance"); got != nil {
		t.Errorf("expected no results, got %+v", got)
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
	}{
		{0.25, 0.25},
		{"0.5", 0.5},
		{"bogus", 0},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := toFloat(tt.in); got != tt.want {
			t.Errorf("toFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewClientRejectsInvalidURL(t *testing.T) {
	if _, err := NewClient("localhost"); err == nil {
		t.Error("expected error for url without host")
	}
	if _, err := NewClient("http://localhost:8080"); err != nil {
		t.Errorf("NewClient() error = %v", err)
	}
}
