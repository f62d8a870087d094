package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"carprice/domain/core"

	"github.com/stretchr/testify/assert"
)

func TestGetCodeAndStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid input", InvalidInput("bad bound"), CodeInvalidInput, http.StatusBadRequest},
		{"database", DatabaseError("failed to connect to database", stderrors.New("refused")), CodeDatabaseError, http.StatusInternalServerError},
		{"wrapped database", Wrap(DatabaseError("migration failed", nil), "load"), CodeDatabaseError, http.StatusInternalServerError},
		{"not found", NotFound("page h9"), CodeNotFound, http.StatusNotFound},
		{"config", ConfigInvalid("PORT is required"), CodeConfigInvalid, http.StatusInternalServerError},
		{"schema", &core.SchemaError{Source: "cars.csv", Missing: []string{"price"}}, CodeSchemaInvalid, http.StatusInternalServerError},
		{"insufficient data", core.NewInsufficientData("welch_t_test", 2, "diesel"), CodeInsufficientData, http.StatusUnprocessableEntity},
		{"collinear wrapped", fmt.Errorf("render: %w", &core.CollinearityError{}), CodeInsufficientData, http.StatusUnprocessableEntity},
		{"unknown field", core.NewUnknownFieldError("colour"), CodeInvalidInput, http.StatusBadRequest},
		{"wrapped internal keeps domain code", Wrap(core.NewUnknownFieldError("colour"), "filter"), CodeInvalidInput, http.StatusBadRequest},
		{"plain", stderrors.New("boom"), "UNKNOWN", http.StatusInternalServerError},
		{"wrapped plain", Wrap(stderrors.New("boom"), "render"), CodeInternalError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, "nothing"))

	inner := NotFound("chart 3.png")
	err := Wrapf(inner, "page %s", "overview")
	assert.Equal(t, "page overview: chart 3.png not found", err.Error())
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, stderrors.Is(err, inner))

	schema := SchemaInvalid(&core.SchemaError{Source: "x.csv", Missing: []string{"price"}})
	assert.True(t, core.IsSchemaError(schema))
	assert.Equal(t, CodeSchemaInvalid, GetCode(schema))
}
