package visibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
)

func courseFields() []schema.FieldDefinition {
	return []schema.FieldDefinition{
		{Name: "courseName", Kind: schema.KindText, Required: true},
		{Name: "useTemplate", Kind: schema.KindCheckbox},
		{Name: "templateCourseName", Kind: schema.KindText, Required: true,
			Conditional: &schema.ConditionDescriptor{Field: "useTemplate", Value: true}},
		{Name: "recipientType", Kind: schema.KindSelect},
		{Name: "studentNames", Kind: schema.KindTextarea,
			Conditional: &schema.ConditionDescriptor{Field: "recipientType", Value: "specific"}},
	}
}

func TestRequiredHandoff(t *testing.T) {
	e := New(courseFields(), schema.FormValues{"useTemplate": false})

	assert.False(t, e.Active("templateCourseName"))
	assert.False(t, e.Required("templateCourseName"))
	assert.True(t, e.Suspended("templateCourseName"))

	e.Set("useTemplate", true)
	assert.True(t, e.Active("templateCourseName"))
	assert.True(t, e.Required("templateCourseName"))
	assert.False(t, e.Suspended("templateCourseName"))

	e.Set("useTemplate", false)
	e.Set("useTemplate", false)
	assert.False(t, e.Required("templateCourseName"))
	assert.True(t, e.Suspended("templateCourseName"))

	e.Set("useTemplate", true)
	assert.True(t, e.Required("templateCourseName"), "suspension survives repeated hide/show cycles")
}

func TestOptionalFieldNeverBecomesRequired(t *testing.T) {
	e := New(courseFields(), schema.FormValues{"recipientType": "all"})
	st, ok := e.State("studentNames")
	require.True(t, ok)
	assert.Equal(t, State{}, st)

	e.Set("recipientType", "specific")
	st, _ = e.State("studentNames")
	assert.Equal(t, State{Active: true}, st)
}

func TestUnconditionalFieldsStayAsDeclared(t *testing.T) {
	e := New(courseFields(), nil)
	assert.True(t, e.Active("courseName"))
	assert.True(t, e.Required("courseName"))
	assert.False(t, e.Active("templateCourseName"), "absent boolean trigger counts as false")
	assert.False(t, e.Active("studentNames"), "absent trigger never matches a string expectation")

	_, ok := e.State("nope")
	assert.False(t, ok)
	assert.False(t, e.Active("nope"))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		values   schema.FormValues
		want     bool
	}{
		{name: "bool true", expected: true, values: schema.FormValues{"f": true}, want: true},
		{name: "bool false vs true", expected: true, values: schema.FormValues{"f": false}},
		{name: "string true is not boolean", expected: true, values: schema.FormValues{"f": "true"}},
		{name: "absent matches false", expected: false, values: schema.FormValues{}, want: true},
		{name: "absent does not match true", expected: true, values: schema.FormValues{}},
		{name: "string equal", expected: "specific", values: schema.FormValues{"f": "specific"}, want: true},
		{name: "string differs", expected: "specific", values: schema.FormValues{"f": "all"}},
		{name: "loose number", expected: 3, values: schema.FormValues{"f": "3"}, want: true},
		{name: "absent string", expected: "", values: schema.FormValues{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Matches(schema.ConditionDescriptor{Field: "f", Value: tt.expected}, tt.values)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpdateAndActiveValues(t *testing.T) {
	e := New(courseFields(), schema.FormValues{"recipientType": "specific"})
	snapshot := schema.FormValues{
		"courseName":         "CS-301",
		"useTemplate":        false,
		"templateCourseName": "Stale",
		"recipientType":      "all",
		"studentNames":       "Ana",
		"extra":              "kept",
	}
	e.Update(snapshot)

	assert.Equal(t, schema.FormValues{
		"courseName":    "CS-301",
		"useTemplate":   false,
		"recipientType": "all",
		"extra":         "kept",
	}, e.ActiveValues(snapshot))
	assert.Len(t, snapshot, 6, "snapshot is not mutated")
}

func TestSetNilClears(t *testing.T) {
	e := New(courseFields(), schema.FormValues{"recipientType": "specific"})
	require.True(t, e.Active("studentNames"))
	e.Set("recipientType", nil)
	assert.False(t, e.Active("studentNames"))
}

func TestStatesAndDependents(t *testing.T) {
	e := New(courseFields(), schema.FormValues{"useTemplate": true})
	states := e.States()
	require.Len(t, states, 5)
	assert.Equal(t, "templateCourseName", states[2].Name)
	assert.Equal(t, State{Active: true, Required: true}, states[2].State)
	assert.Equal(t, []string{"templateCourseName"}, e.Dependents("useTemplate"))
	assert.Empty(t, e.Dependents("courseName"))
}

func TestTransitionsAreLogged(t *testing.T) {
	logger := &utils.MockLogger{}
	logger.On("Debug", "Field hidden", mock.Anything).Return()
	logger.On("Debug", "Field shown", mock.Anything).Return()

	e := New(courseFields(), schema.FormValues{"recipientType": "specific", "useTemplate": true}, WithLogger(logger))
	logger.AssertNotCalled(t, "Debug", "Field hidden", mock.Anything)

	e.Set("useTemplate", false)
	logger.AssertNumberOfCalls(t, "Debug", 1)
	e.Set("useTemplate", false)
	logger.AssertNumberOfCalls(t, "Debug", 1)
	e.Set("useTemplate", true)
	logger.AssertNumberOfCalls(t, "Debug", 2)
}
