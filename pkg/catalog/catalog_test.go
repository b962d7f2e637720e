package catalog

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBookValidate(t *testing.T) {
	tests := []struct {
		name  string
		title string
		price string
		ok    bool
	}{
		{"whole", "Dune", "10", true},
		{"cents", "Dune", "10.05", true},
		{"trailing zeros", "Dune", "10.0500", true},
		{"smallest", "Dune", "0.01", true},
		{"blank title", " ", "10.00", false},
		{"zero", "Dune", "0", false},
		{"negative", "Dune", "-1.00", false},
		{"fraction of a cent", "Dune", "10.005", false},
		{"rounds to zero", "Dune", "0.004", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Book{ID: uuid.New(), Title: tt.title, Price: decimal.RequireFromString(tt.price)}
			err := b.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidBook)
		})
	}
}

func TestBookInfoValidate(t *testing.T) {
	assert.NoError(t, BookInfo{ID: uuid.New(), BookID: uuid.New(), Year: 1965}.Validate())
	assert.ErrorIs(t, BookInfo{ID: uuid.New()}.Validate(), ErrInvalidBook)
	assert.ErrorIs(t, BookInfo{ID: uuid.New(), BookID: uuid.New(), Year: -1}.Validate(), ErrInvalidBook)
}
