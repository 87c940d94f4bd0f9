package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetField(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		path    []string
		value   any
		want    string
		wantErr error
	}{
		{
			name:  "top level field",
			doc:   `{"id":"s1","subscription":true}`,
			path:  []string{"subscription"},
			value: false,
			want:  `{"id":"s1","subscription":false}`,
		},
		{
			name:  "creates missing objects",
			doc:   `{"id":"o1"}`,
			path:  []string{"a", "b"},
			value: "x",
			want:  `{"id":"o1","a":{"b":"x"}}`,
		},
		{
			name:  "array index",
			doc:   `{"productOrderItem":[{"id":"1","state":"acknowledged"}]}`,
			path:  []string{"productOrderItem", "0", "previousState"},
			value: "acknowledged",
			want:  `{"productOrderItem":[{"id":"1","state":"acknowledged","previousState":"acknowledged"}]}`,
		},
		{
			name:  "struct value",
			doc:   `{}`,
			path:  []string{"ref"},
			value: struct {
				ID string `json:"id"`
			}{ID: "7"},
			want: `{"ref":{"id":"7"}}`,
		},
		{
			name:    "index out of range",
			doc:     `{"productOrderItem":[]}`,
			path:    []string{"productOrderItem", "0", "state"},
			value:   "x",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "through a scalar",
			doc:     `{"state":"acknowledged"}`,
			path:    []string{"state", "x"},
			value:   "x",
			wantErr: ErrInvalidPath,
		},
		{
			name:    "empty path",
			doc:     `{}`,
			value:   "x",
			wantErr: ErrInvalidPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := setField([]byte(tt.doc), tt.path, tt.value)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
