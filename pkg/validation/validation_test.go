package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Title string `json:"title" validate:"required"`
	Level int    `json:"level" validate:"gte=1,lte=3"`
	Skip  string `json:"-"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(payload{Title: "ok", Level: 2}))

	err := Struct(payload{Level: 9})
	ve, ok := AsError(err)
	require.True(t, ok)
	require.Len(t, ve.Fields, 2)
	assert.Equal(t, "level", ve.Fields[0].Field)
	assert.Equal(t, "title", ve.Fields[1].Field)
	assert.NotEmpty(t, ve.Fields[1].Message)
	assert.Contains(t, err.Error(), "title")
}

func TestNewError(t *testing.T) {
	ve, ok := AsError(NewError("deadline", "inválido"))
	require.True(t, ok)
	assert.Equal(t, []FieldError{{Field: "deadline", Message: "inválido"}}, ve.Fields)
}
