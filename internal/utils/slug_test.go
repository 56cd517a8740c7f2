package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Samsung Galaxy S24 Ultra", "samsung-galaxy-s24-ultra"},
		{"  MacBook Pro (16-inch) ", "macbook-pro-16-inch"},
		{"USB-C -- Cable!!!", "usb-c-cable"},
		{"---", ""},
		{"", ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, Slugify(tc.name), "input %q", tc.name)
	}
}
