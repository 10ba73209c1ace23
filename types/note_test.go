package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteUpdateCategoryPresence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantEmpty bool
		wantSet   bool
		wantValue *int
	}{
		{
			name:      "absent field",
			body:      `{"title":"x"}`,
			wantEmpty: false,
			wantSet:   false,
		},
		{
			name:      "explicit null clears",
			body:      `{"category_id":null}`,
			wantEmpty: false,
			wantSet:   true,
			wantValue: nil,
		},
		{
			name:      "value supplied",
			body:      `{"category_id":7}`,
			wantEmpty: false,
			wantSet:   true,
			wantValue: intPtr(7),
		},
		{
			name:      "nothing supplied",
			body:      `{}`,
			wantEmpty: true,
			wantSet:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var update NoteUpdate
			require.NoError(t, json.Unmarshal([]byte(tt.body), &update))

			assert.Equal(t, tt.wantEmpty, update.Empty())
			assert.Equal(t, tt.wantSet, update.CategoryID.Set)
			if tt.wantSet {
				if tt.wantValue == nil {
					assert.Nil(t, update.CategoryID.Value)
				} else {
					require.NotNil(t, update.CategoryID.Value)
					assert.Equal(t, *tt.wantValue, *update.CategoryID.Value)
				}
			}
		})
	}
}

func TestOptionalIntRoundTrip(t *testing.T) {
	t.Parallel()

	encoded, err := json.Marshal(NoteUpdate{CategoryID: SomeInt(3)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":null,"content":null,"color":null,"pinned":null,"category_id":3}`, string(encoded))

	// An unset OptionalInt is omitted entirely.
	encoded, err = json.Marshal(NoteUpdate{})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "category_id")
}

func intPtr(v int) *int {
	return &v
}
