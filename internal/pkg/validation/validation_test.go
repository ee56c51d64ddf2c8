package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productForm struct {
	Name  string `form:"name" binding:"required" validate:"required"`
	Price string `form:"price" validate:"required,money"`
}

type statusBody struct {
	Status string `json:"status" validate:"required,order_status"`
	Phone  string `json:"phone" validate:"omitempty,phone"`
}

func newValidator(t *testing.T) *validator.Validate {
	v := validator.New()
	require.NoError(t, RegisterDefaults(v))
	require.NoError(t, RegisterOneOf(v, "order_status", "PENDING", "SHIPPED", "DELIVERED", "CANCELED"))
	return v
}

func TestMoney(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(productForm{Name: "Laptop", Price: "499.99"}))
	assert.NoError(t, v.Struct(productForm{Name: "Sticker", Price: "0"}))

	err := v.Struct(productForm{Name: "Laptop", Price: "-1"})
	require.Error(t, err)
	fields := GetValidationErrors(err)
	require.Len(t, fields, 1)
	assert.Equal(t, "price", fields[0].Field)
	assert.Equal(t, "money", fields[0].Tag)

	assert.Error(t, v.Struct(productForm{Name: "Laptop", Price: "abc"}))
}

func TestOneOfAndPhone(t *testing.T) {
	v := newValidator(t)

	assert.NoError(t, v.Struct(statusBody{Status: "SHIPPED", Phone: "+1 (555) 123-4567"}))

	fields := GetValidationErrors(v.Struct(statusBody{Status: "shipped", Phone: "call me"}))
	require.Len(t, fields, 2)
	assert.Equal(t, "status", fields[0].Field)
	assert.Equal(t, "must be one of PENDING, SHIPPED, DELIVERED, CANCELED", fields[0].Message)
	assert.Equal(t, "phone", fields[1].Field)
}

func TestGetValidationErrorsIgnoresOtherErrors(t *testing.T) {
	assert.Nil(t, GetValidationErrors(assert.AnError))
}
