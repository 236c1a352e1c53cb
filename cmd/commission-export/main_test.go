package main

import (
	"testing"
	"time"
)

func TestExportRange(t *testing.T) {
	loc := time.FixedZone("WIB", 7*3600)
	tests := []struct {
		name             string
		from, to, month  string
		wantFrom, wantTo string
		wantErr          bool
	}{
		{name: "open", wantFrom: "", wantTo: ""},
		{name: "month", month: "2024-02", wantFrom: "2024-02-01", wantTo: "2024-02-29"},
		{name: "month wins", from: "2024-01-01", month: "2024-06", wantFrom: "2024-06-01", wantTo: "2024-06-30"},
		{name: "explicit", from: "2024-05-01", to: "2024-05-15", wantFrom: "2024-05-01", wantTo: "2024-05-15"},
		{name: "bad month", month: "June", wantErr: true},
		{name: "bad from", from: "01/05/2024", wantErr: true},
		{name: "reversed", from: "2024-05-15", to: "2024-05-01", wantErr: true},
	}
	format := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := exportRange(tt.from, tt.to, tt.month, loc)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("exportRange: %v", err)
			}
			if format(from) != tt.wantFrom || format(to) != tt.wantTo {
				t.Fatalf("range = %s..%s, want %s..%s", format(from), format(to), tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestExportName(t *testing.T) {
	from := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	if got := exportName(&from, &to); got != "commissions_20240601_20240630.xlsx" {
		t.Fatalf("exportName = %q", got)
	}
	if got := exportName(nil, nil); got != "commissions_start_now.xlsx" {
		t.Fatalf("exportName = %q", got)
	}
}
