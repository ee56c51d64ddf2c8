package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	r := Request{Page: 0, Limit: 500}
	r.Normalize()
	assert.Equal(t, 1, r.Page)
	assert.Equal(t, MaxLimit, r.Limit)

	r = Request{Page: 3, Limit: 0}
	r.Normalize()
	assert.Equal(t, DefaultLimit, r.Limit)
	assert.Equal(t, 40, r.Offset())
}

func TestNew(t *testing.T) {
	p := New(Request{Page: 2, Limit: 10}, 25)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = New(Request{Page: 1, Limit: 10}, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%lap%", ContainsPattern("LAP"))
	assert.Equal(t, "%!_%", ContainsPattern("_"))
	assert.Equal(t, "%50!%%", ContainsPattern("50%"))
	assert.Equal(t, "%a!!b%", ContainsPattern("a!b"))
}
