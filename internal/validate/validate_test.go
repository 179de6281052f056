package validate

import "testing"

type createRewardRequest struct {
	Title     string `json:"title" validate:"required"`
	PointCost int    `json:"point_cost" validate:"gte=0"`
	Color     string `json:"color" validate:"omitempty,hexcolor"`
}

func TestStructValid(t *testing.T) {
	req := createRewardRequest{Title: "Movie night", PointCost: 50}
	if fields := Struct(req); fields != nil {
		t.Errorf("expected nil, got %v", fields)
	}
}

func TestStructReportsJSONNames(t *testing.T) {
	req := createRewardRequest{PointCost: -5, Color: "blue"}
	fields := Struct(req)
	if fields == nil {
		t.Fatal("expected validation errors")
	}
	if _, ok := fields["title"]; !ok {
		t.Errorf("missing title error, got %v", fields)
	}
	if _, ok := fields["point_cost"]; !ok {
		t.Errorf("missing point_cost error, got %v", fields)
	}
	if _, ok := fields["color"]; !ok {
		t.Errorf("missing color error, got %v", fields)
	}
	if _, ok := fields["Title"]; ok {
		t.Error("errors must use JSON names, not Go field names")
	}
}
