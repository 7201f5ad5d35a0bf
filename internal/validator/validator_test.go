package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidator_RequiredMaxLengthOneOf(t *testing.T) {
	v := New()
	v.Required("title", "   ")
	v.MaxLength("description", strings.Repeat("x", 10), 5)
	v.OneOf("status", "Bogus", []string{"Todo", "Done"})

	assert.False(t, v.Valid())
	require.Len(t, v.Errors(), 3)
	assert.Equal(t, "title", v.Errors()[0].Field)
}

func TestValidator_ValidWhenNoChecksFail(t *testing.T) {
	v := New()
	v.Required("title", "hello")
	v.MaxLength("title", "hello", 200)
	v.OneOf("status", "Todo", []string{"Todo", "Done"})

	assert.True(t, v.Valid())
	assert.Nil(t, v.Errors())
}

func TestValidateCreateIssue_Valid(t *testing.T) {
	errs := ValidateCreateIssue(CreateIssueRequest{
		Title:    "Fix the thing",
		Status:   "Todo",
		Priority: "Low",
	})
	assert.Empty(t, errs)
}

func TestValidateCreateIssue_EmptyTitle(t *testing.T) {
	errs := ValidateCreateIssue(CreateIssueRequest{Status: "Todo", Priority: "Low"})
	require.NotEmpty(t, errs)
	var fields []string
	for _, e := range errs {
		fields = append(fields, e.Field)
	}
	assert.Contains(t, fields, "title")
}

func TestValidateCreateIssue_TitleTooLong(t *testing.T) {
	errs := ValidateCreateIssue(CreateIssueRequest{
		Title:    strings.Repeat("a", 201),
		Status:   "Todo",
		Priority: "Low",
	})
	require.NotEmpty(t, errs)
}

func TestValidateCreateIssue_DescriptionTooLong(t *testing.T) {
	errs := ValidateCreateIssue(CreateIssueRequest{
		Title:       "ok",
		Description: strings.Repeat("a", 5001),
		Status:      "Todo",
		Priority:    "Low",
	})
	require.NotEmpty(t, errs)
}

func TestValidateCreateIssue_InvalidStatusAndPriority(t *testing.T) {
	errs := ValidateCreateIssue(CreateIssueRequest{
		Title:    "ok",
		Status:   "Nope",
		Priority: "Nope",
	})
	require.Len(t, errs, 2)
}

func TestValidateUpdateIssue_OnlyValidatesPresentFields(t *testing.T) {
	errs := ValidateUpdateIssue(UpdateIssueRequest{})
	assert.Empty(t, errs, "an update with no fields present should never fail validation")
}

func TestValidateUpdateIssue_RejectsPresentInvalidField(t *testing.T) {
	bad := "Nope"
	errs := ValidateUpdateIssue(UpdateIssueRequest{Status: &bad})
	require.Len(t, errs, 1)
	assert.Equal(t, "status", errs[0].Field)
}

func TestValidateUpdateIssue_EmptyTitleWhenPresentFails(t *testing.T) {
	empty := "   "
	errs := ValidateUpdateIssue(UpdateIssueRequest{Title: &empty})
	require.NotEmpty(t, errs)
}

func TestErrors_ErrorStringJoinsFields(t *testing.T) {
	errs := Errors{{Field: "title", Message: "is required"}, {Field: "status", Message: "must be one of: Todo"}}
	assert.Equal(t, "title: is required; status: must be one of: Todo", errs.Error())
}
