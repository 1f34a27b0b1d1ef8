package repository

import "testing"

func TestPage_Normalize(t *testing.T) {
	tests := []struct {
		name        string
		page        *Page[int]
		defaultSize int64
		wantNumber  int64
		wantSize    int64
	}{
		{name: "valid page", page: NewPage[int](3, 20), defaultSize: 10, wantNumber: 3, wantSize: 20},
		{name: "zero number", page: NewPage[int](0, 20), defaultSize: 10, wantNumber: 1, wantSize: 20},
		{name: "negative size", page: NewPage[int](2, -4), defaultSize: 25, wantNumber: 2, wantSize: 25},
		{name: "no default", page: NewPage[int](1, 0), defaultSize: 0, wantNumber: 1, wantSize: DefaultPageSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.page.Normalize(tt.defaultSize)
			if tt.page.PageNumber != tt.wantNumber || tt.page.PageSize != tt.wantSize {
				t.Fatalf("got page %d size %d, want %d and %d",
					tt.page.PageNumber, tt.page.PageSize, tt.wantNumber, tt.wantSize)
			}
		})
	}
}

func TestPage_Offset(t *testing.T) {
	tests := []struct {
		name string
		p    *Page[int]
		want int64
	}{
		{name: "first page", p: NewPage[int](1, 10), want: 0},
		{name: "second page", p: NewPage[int](2, 10), want: 10},
		{name: "invalid page", p: NewPage[int](0, 10), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Offset(); got != tt.want {
				t.Fatalf("offset = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPage_Totals(t *testing.T) {
	p := NewPage[string](1, 10)
	if p.TotalKnown() || p.HasNext() {
		t.Fatal("new page must have an unknown total")
	}

	p.SetTotalRow(25)
	if !p.TotalKnown() || p.TotalPage != 3 || !p.HasNext() {
		t.Fatalf("unexpected totals: %+v", p)
	}

	p.PageNumber = 3
	if p.HasNext() {
		t.Fatal("last page reports a next page")
	}

	empty := NewPageWithTotal[string](1, 10, 0)
	if !empty.TotalKnown() || empty.TotalPage != 0 {
		t.Fatalf("unexpected empty totals: %+v", empty)
	}
}
