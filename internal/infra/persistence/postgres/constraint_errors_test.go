package postgres

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsUniqueConstraintViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", errors.Wrap(gorm.ErrDuplicatedKey, "insert"), true},
		{"postgres message", errors.New(`ERROR: duplicate key value violates unique constraint "idx_provider_links_provider_account" (SQLSTATE 23505)`), true},
		{"sqlite message", errors.New("UNIQUE constraint failed: provider_links.provider, provider_links.provider_account_id"), true},
		{"unrelated", errors.New("connection reset by peer"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueConstraintViolation(tt.err))
		})
	}
}

func TestIsForeignKeyAndNotNullViolation(t *testing.T) {
	assert.True(t, isForeignKeyConstraintViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.True(t, isForeignKeyConstraintViolation(gorm.ErrForeignKeyViolated))
	assert.False(t, isForeignKeyConstraintViolation(nil))

	assert.True(t, isNotNullConstraintViolation(errors.New(`null value in column "email" violates not-null constraint (SQLSTATE 23502)`)))
	assert.False(t, isNotNullConstraintViolation(errors.New("timeout")))
}
