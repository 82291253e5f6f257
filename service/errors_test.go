package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantNotFound   bool
		wantValidation bool
	}{
		{name: "record not found", err: gorm.ErrRecordNotFound, wantNotFound: true},
		{name: "translated foreign key", err: gorm.ErrForeignKeyViolated, wantValidation: true},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: users.email (2067)"), wantValidation: true},
		{name: "postgres check", err: errors.New(`pq: new row for relation "compliance_tasks" violates check constraint "ck_status"`), wantValidation: true},
		{name: "postgres value too long", err: errors.New("pq: value too long for type character varying(255)"), wantValidation: true},
		{name: "anything else", err: errors.New("connection reset")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError("op", tt.err)
			assert.Equal(t, tt.wantNotFound, errors.Is(got, ErrNotFound))
			assert.Equal(t, tt.wantValidation, IsValidation(got))
			if !tt.wantNotFound {
				assert.ErrorIs(t, got, tt.err)
			}
		})
	}

	assert.NoError(t, translateError("op", nil))
}
