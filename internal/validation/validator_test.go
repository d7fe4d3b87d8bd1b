package validation_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/readtrack/readtrack-server/internal/errors"
	"github.com/readtrack/readtrack-server/internal/validation"
)

type bookInput struct {
	Title      string `json:"title" validate:"required,max=500"`
	Status     string `json:"status,omitempty" validate:"book_status"`
	TotalPages *int   `json:"total_pages,omitempty" validate:"omitempty,gt=0"`
}

type goalInput struct {
	Type   string `json:"type" validate:"required,goal_type"`
	Period string `json:"period" validate:"required,goal_period"`
	Target int    `json:"target" validate:"gt=0"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(bookInput{Title: "Dune", Status: "reading"}))
	assert.NoError(t, v.Validate(bookInput{Title: "Dune"}))
	assert.NoError(t, v.Validate(goalInput{Type: "books-per-month", Period: "month", Target: 2}))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()
	zero := 0

	tests := []struct {
		name      string
		input     any
		wantField string
		wantMsg   string
	}{
		{"missing title", bookInput{}, "title", "is required"},
		{"unknown status", bookInput{Title: "x", Status: "shelved"}, "status", "must be one of: want-to-read reading paused completed"},
		{"non-positive pages", bookInput{Title: "x", TotalPages: &zero}, "total_pages", "must be greater than 0"},
		{"unknown goal type", goalInput{Type: "minutes", Period: "day", Target: 1}, "type", "must be one of: daily-reading books-per-month books-per-year reading-streak pages-per-day"},
		{"unknown period", goalInput{Type: "daily-reading", Period: "decade", Target: 1}, "period", "must be one of: day week month year"},
		{"zero target", goalInput{Type: "daily-reading", Period: "day"}, "target", "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.input)
			require.Error(t, err)

			var domainErr *domainerrors.Error
			require.ErrorAs(t, err, &domainErr)
			assert.Equal(t, http.StatusBadRequest, domainErr.HTTPStatus())

			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}
