package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangedKeys(t *testing.T) {
	before := map[string]interface{}{"name": "Asha", "age": 54, "tags": []string{"a"}, "note": "x"}
	after := map[string]interface{}{"name": "Asha", "age": 55, "tags": []string{"a"}, "phone": "98"}

	assert.Equal(t, []string{"age", "note", "phone"}, ChangedKeys(before, after))
	assert.Empty(t, ChangedKeys(before, before))
	assert.Equal(t, []string{"name"}, ChangedKeys(nil, map[string]interface{}{"name": 1}))
}
