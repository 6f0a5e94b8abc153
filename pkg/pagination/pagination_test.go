package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		size  int
		want  int
	}{
		{0, 20, 1},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{45, 10, 5},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.size), "total=%d size=%d", tt.total, tt.size)
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Offset(1, 20))
	assert.Equal(t, 40, Offset(3, 20))
	assert.Equal(t, 0, Offset(0, 20))
	assert.Equal(t, 0, Offset(-4, 20))
}

func TestNewPage(t *testing.T) {
	p := NewPage([]string{"c", "b"}, 5, 0, 2)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, int64(5), p.TotalCount)
	assert.Equal(t, []string{"c", "b"}, p.Records)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(0, 4))
	assert.Equal(t, 4, Clamp(9, 4))
	assert.Equal(t, 2, Clamp(2, 4))
}
