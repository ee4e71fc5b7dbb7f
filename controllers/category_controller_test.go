package controllers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Electronics", "electronics"},
		{"Books & Stationery", "books-stationery"},
		{"  Hostel Essentials  ", "hostel-essentials"},
		{"Phones, Tablets & Accessories", "phones-tablets-accessories"},
		{"Fashion!!!", "fashion"},
		{"100% Cotton", "100-cotton"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), "input %q", tt.name)
	}
}
