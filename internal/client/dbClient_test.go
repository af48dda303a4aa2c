package client

import (
	"bytes"
	"context"
	"testing"

	"cloudcart-storefront/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestGormLogger_SkipsRecordNotFound(t *testing.T) {
	var out bytes.Buffer
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:         newGormLogger(&out),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	out.Reset()

	var order model.Order
	err = db.WithContext(context.Background()).Where("id = ?", "missing").First(&order).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, out.String())

	err = db.Exec("SELECT * FROM no_such_table").Error
	require.Error(t, err)
	assert.Contains(t, out.String(), "no_such_table")
}
