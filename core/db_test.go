package core

import "testing"

func Test_DBOrdering_String(t *testing.T) {
	tests := []struct {
		name string
		ord  DBOrdering
		want string
	}{
		{"descending by default", DBOrdering{Field: "created_at"}, "created_at DESC"},
		{"ascending", DBOrdering{Field: "name", Ascending: true}, "name ASC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ord.String(); got != tt.want {
				t.Errorf("DBOrdering.String() = %q; want %q", got, tt.want)
			}
		})
	}
}
