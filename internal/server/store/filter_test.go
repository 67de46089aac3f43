package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilter_AndDoesNotModifyReceiver(t *testing.T) {
	base := make(Filter, 1, 4)
	base[0] = Eq("_id", "a")

	one := base.And(Eq("userId", "u1"))
	two := base.And(Eq("userId", "u2"))

	assert.Len(t, base, 1)
	assert.Equal(t, "u1", one[1].Value)
	assert.Equal(t, "u2", two[1].Value)
}

func TestByID(t *testing.T) {
	assert.Equal(t, Filter{{Field: "_id", Op: OpEq, Value: "x"}}, ByID("x"))
}

func TestOp_String(t *testing.T) {
	assert.Equal(t, "contains", OpContains.String())
	assert.Equal(t, "or", Or().Op.String())
	assert.Equal(t, "unknown", Op(99).String())
}
