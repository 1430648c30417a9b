package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	cases := []struct {
		name         string
		number, size int
		wantNumber   int
		wantSize     int
	}{
		{"passthrough", 3, 25, 3, 25},
		{"zero values", 0, 0, 1, 10},
		{"negative values", -2, -5, 1, 10},
		{"size capped", 1, 500, 1, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPage(tc.number, tc.size)
			assert.Equal(t, tc.wantNumber, p.Number)
			assert.Equal(t, tc.wantSize, p.Size)
		})
	}
}

func TestPageOffsetLimit(t *testing.T) {
	p := NewPage(3, 20)
	assert.EqualValues(t, 40, p.Offset())
	assert.EqualValues(t, 20, p.Limit())

	// The zero value behaves like the first default-size page.
	var zero Page
	assert.EqualValues(t, 0, zero.Offset())
	assert.EqualValues(t, 10, zero.Limit())
}

func TestPageTotalPages(t *testing.T) {
	p := NewPage(1, 10)
	assert.EqualValues(t, 0, p.TotalPages(0))
	assert.EqualValues(t, 1, p.TotalPages(1))
	assert.EqualValues(t, 1, p.TotalPages(10))
	assert.EqualValues(t, 2, p.TotalPages(11))
	assert.EqualValues(t, 10, p.TotalPages(100))
}
