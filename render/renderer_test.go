package render

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/teilomillet/promptbuilder/schema"
	"github.com/teilomillet/promptbuilder/utils"
)

func quietRenderer(opts ...Option) *Renderer {
	return New(append([]Option{WithLogger(utils.NewNopLogger())}, opts...)...)
}

func courseAction() *schema.ActionDefinition {
	return &schema.ActionDefinition{
		ID: "create-course",
		Fields: []schema.FieldDefinition{
			{Name: "courseName", Kind: schema.KindText, Required: true},
			{Name: "courseCode", Kind: schema.KindText},
		},
		PromptTemplate: `Create a new course called "{courseName}"{courseCode}`,
		TemplateRules: map[string]schema.TemplateRule{
			"courseCode": {Condition: "notEmpty", Template: ` with course code "{courseCode}"`},
		},
	}
}

func TestRenderCreateCourse(t *testing.T) {
	r := quietRenderer()
	tests := []struct {
		name string
		raw  schema.FormValues
		want string
	}{
		{
			name: "empty course code",
			raw:  schema.FormValues{"courseName": "CS-301", "courseCode": ""},
			want: `Create a new course called "CS-301"`,
		},
		{
			name: "with course code",
			raw:  schema.FormValues{"courseName": "CS-301", "courseCode": "CS-301A"},
			want: `Create a new course called "CS-301" with course code "CS-301A"`,
		},
		{
			name: "absent course code",
			raw:  schema.FormValues{"courseName": "CS-301"},
			want: `Create a new course called "CS-301"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Render(courseAction(), tt.raw))
		})
	}
}

func TestRenderTrueCondition(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "create-course",
		Fields: []schema.FieldDefinition{
			{Name: "courseName", Kind: schema.KindText},
			{Name: "useTemplate", Kind: schema.KindCheckbox},
			{Name: "templateCourseName", Kind: schema.KindText},
		},
		PromptTemplate: `Create "{courseName}"{templateNote}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"templateNote": {
				Field:     "useTemplate",
				Condition: "true",
				Template:  ` using the "{templateCourseName}" template`,
			},
		},
	}
	r := quietRenderer()

	tests := []struct {
		name     string
		value    any
		included bool
	}{
		{name: "bool true", value: true, included: true},
		{name: "string true", value: "true", included: true},
		{name: "bool false", value: false},
		{name: "string false", value: "false"},
		{name: "absent", value: nil},
		{name: "other string", value: "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := schema.FormValues{"courseName": "CS-301", "templateCourseName": "Base"}
			if tt.value != nil {
				raw["useTemplate"] = tt.value
			}
			got := r.Render(a, raw)
			if tt.included {
				assert.Equal(t, `Create "CS-301" using the "Base" template.`, got)
			} else {
				assert.Equal(t, `Create "CS-301".`, got)
			}
		})
	}
}

func TestRenderFalseCondition(t *testing.T) {
	a := &schema.ActionDefinition{
		ID:             "publish",
		Fields:         []schema.FieldDefinition{{Name: "published", Kind: schema.KindCheckbox}},
		PromptTemplate: `Save the page{draft}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"draft": {Field: "published", Condition: "false", Template: " as a draft"},
		},
	}
	r := quietRenderer()
	assert.Equal(t, "Save the page as a draft.", r.Render(a, schema.FormValues{"published": false}))
	assert.Equal(t, "Save the page as a draft.", r.Render(a, schema.FormValues{"published": "false"}))
	assert.Equal(t, "Save the page.", r.Render(a, schema.FormValues{"published": true}))
	assert.Equal(t, "Save the page.", r.Render(a, schema.FormValues{}))
}

func TestRenderDates(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "schedule",
		Fields: []schema.FieldDefinition{
			{Name: "startsAt", Kind: schema.KindDateTime},
			{Name: "dueDate", Kind: schema.KindText},
			{Name: "note", Kind: schema.KindText},
		},
		PromptTemplate: `Open {startsAt}, due {dueDate}. {note}`,
	}
	r := quietRenderer()

	got := r.Render(a, schema.FormValues{
		"startsAt": "2026-02-24T09:00",
		"dueDate":  "2026-03-01T17:30:00",
		"note":     "2026-02-24T09:00",
	})
	assert.Equal(t, "Open February 24, 2026 at 9:00 AM, due March 1, 2026 at 5:30 PM. 2026-02-24T09:00", got)

	got = r.Render(a, schema.FormValues{
		"startsAt": time.Date(2026, 2, 24, 21, 5, 0, 0, time.UTC),
		"dueDate":  "next week",
		"note":     time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC),
	})
	assert.Equal(t, "Open February 24, 2026 at 9:05 PM, due next week. February 24, 2026 at 9:00 AM", got)
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "February 24, 2026 at 9:00 AM", FormatDate(time.Date(2026, 2, 24, 9, 0, 0, 0, time.UTC)))
}

func TestRenderExcludedFragmentsLeaveNoOrphanPunctuation(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "announce",
		Fields: []schema.FieldDefinition{
			{Name: "title", Kind: schema.KindText},
			{Name: "delay", Kind: schema.KindText},
			{Name: "pin", Kind: schema.KindCheckbox},
		},
		PromptTemplate: `Post "{title}" {delay}. {pin}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"delay": {Condition: "notEmpty", Template: ", delayed until {delay}"},
			"pin":   {Condition: "true", Template: "Pin it"},
		},
	}
	r := quietRenderer()

	assert.Equal(t, `Post "Week 1".`, r.Render(a, schema.FormValues{"title": "Week 1"}))
	assert.Equal(t, `Post "Week 1", delayed until Monday. Pin it.`,
		r.Render(a, schema.FormValues{"title": "Week 1", "delay": "Monday", "pin": true}))
}

func TestRenderPassOrder(t *testing.T) {
	// A token filled by pass 1 is not a rule; a rule fragment resolves its
	// own tokens flatly and never expands another rule.
	a := &schema.ActionDefinition{
		ID: "order",
		Fields: []schema.FieldDefinition{
			{Name: "name", Kind: schema.KindText},
			{Name: "extra", Kind: schema.KindText},
		},
		PromptTemplate: `{name}{extra}{other}`,
		TemplateRules: map[string]schema.TemplateRule{
			"extra": {Condition: "notEmpty", Template: " +{extra} {other}"},
			"other": {Template: " [other]"},
		},
	}
	got := quietRenderer().Render(a, schema.FormValues{"name": "{extra}", "extra": "x"})
	assert.Equal(t, "{extra} +x [other]", got)
}

func TestRenderLeavesUnknownTokens(t *testing.T) {
	a := &schema.ActionDefinition{
		ID:             "broken",
		Fields:         []schema.FieldDefinition{{Name: "name", Kind: schema.KindText}},
		PromptTemplate: `Hello {name}, see {mystery}.`,
	}
	assert.Equal(t, "Hello, see {mystery}.", quietRenderer().Render(a, schema.FormValues{}))
}

func TestRenderUsesDerivedValues(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "message",
		Fields: []schema.FieldDefinition{
			{Name: "term", Kind: schema.KindTerm},
			{Name: "recipientType", Kind: schema.KindSelect},
			{Name: "studentNames", Kind: schema.KindText},
			{Name: "files", Kind: schema.KindFiles},
		},
		PromptTemplate: `Message {recipientDescription} in {termFormatted}{files}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"files": {Field: "filesList", Condition: "notEmpty", Template: " attaching {filesList}"},
		},
	}
	got := quietRenderer().Render(a, schema.FormValues{
		"term":          "FALL-2025",
		"recipientType": "specific",
		"studentNames":  "Ana, Ben",
		"files":         []schema.FileDescriptor{{Name: "a.pdf"}, {Name: "b.pdf"}},
	})
	assert.Equal(t, "Message these specific students: Ana, Ben in Fall 2025 attaching a.pdf, b.pdf.", got)
}

func TestRenderUnknownConditionIncludesAndWarns(t *testing.T) {
	logger := &utils.MockLogger{}
	logger.On("Warn", "Unknown template rule condition, including fragment", mock.Anything).Return()
	logger.On("Debug", mock.Anything, mock.Anything).Return()

	a := &schema.ActionDefinition{
		ID:             "odd",
		Fields:         []schema.FieldDefinition{{Name: "name", Kind: schema.KindText}},
		PromptTemplate: `Hi{tail}`,
		TemplateRules: map[string]schema.TemplateRule{
			"tail": {Condition: "sometimes", Template: " there"},
		},
	}
	got := New(WithLogger(logger)).Render(a, schema.FormValues{})

	assert.Equal(t, "Hi there", got)
	assert.Equal(t, 1, logger.WarnCallCount)
	logger.AssertExpectations(t)
}

func TestRenderGateCondition(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "quiz",
		Fields: []schema.FieldDefinition{
			{Name: "useQuestionBank", Kind: schema.KindCheckbox},
			{Name: "bankName", Kind: schema.KindText},
		},
		PromptTemplate: `Create a quiz{questionBank}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"questionBank": {Condition: "useQuestionBank", Template: ` drawing from "{bankName}"`},
		},
	}
	r := quietRenderer()
	assert.Equal(t, `Create a quiz drawing from "Unit 1".`, r.Render(a, schema.FormValues{"useQuestionBank": true, "bankName": "Unit 1"}))
	assert.Equal(t, "Create a quiz.", r.Render(a, schema.FormValues{"useQuestionBank": "true", "bankName": "Unit 1"}))
	assert.Equal(t, "Create a quiz.", r.Render(a, schema.FormValues{"bankName": "Unit 1"}))
}

func TestRenderPredicateAndExpression(t *testing.T) {
	a := &schema.ActionDefinition{
		ID: "grade",
		Fields: []schema.FieldDefinition{
			{Name: "points", Kind: schema.KindNumber},
			{Name: "late", Kind: schema.KindCheckbox},
		},
		PromptTemplate: `Grade it{bonus}{penalty}{broken}.`,
		TemplateRules: map[string]schema.TemplateRule{
			"bonus": {
				Template: " with bonus",
				Predicate: func(v schema.DerivedValues) bool {
					p, _ := v["points"].(float64)
					return p > 90
				},
			},
			"penalty": {Expr: `has(values.late) && values.late == true`, Template: " with a late penalty"},
			"broken":  {Expr: `values.points +`, Template: " never"},
		},
	}
	r := quietRenderer()
	assert.Equal(t, "Grade it with bonus with a late penalty.", r.Render(a, schema.FormValues{"points": 95.0, "late": true}))
	assert.Equal(t, "Grade it.", r.Render(a, schema.FormValues{"points": 50.0}))
}

func TestRenderExpressionErrorWarns(t *testing.T) {
	logger := &utils.MockLogger{}
	logger.On("Warn", "Template rule condition failed, excluding fragment", mock.Anything).Return()

	a := &schema.ActionDefinition{
		ID:             "expr",
		Fields:         []schema.FieldDefinition{{Name: "count", Kind: schema.KindNumber}},
		PromptTemplate: `Count{more}`,
		TemplateRules: map[string]schema.TemplateRule{
			"more": {Expr: `values.count > 3`, Template: " more"},
		},
	}
	// values.count is missing: evaluation fails with a no-such-key error.
	got := New(WithLogger(logger)).Render(a, schema.FormValues{})
	assert.Equal(t, "Count", got)
	assert.Equal(t, 1, logger.WarnCallCount)
	logger.AssertExpectations(t)
}

func TestExpressionOverFiles(t *testing.T) {
	a := &schema.ActionDefinition{
		ID:             "upload",
		Fields:         []schema.FieldDefinition{{Name: "files", Kind: schema.KindFiles}},
		PromptTemplate: `Upload{many}`,
		TemplateRules: map[string]schema.TemplateRule{
			"many": {Expr: `has(values.files) && size(values.files) > 1 && values.files[0].name == "a.pdf"`, Template: " {filesList}"},
		},
	}
	got := quietRenderer().Render(a, schema.FormValues{
		"files": []schema.FileDescriptor{{Name: "a.pdf", Size: 4}, {Name: "b.pdf"}},
	})
	assert.Equal(t, "Upload a.pdf, b.pdf", got)
}

func TestCheck(t *testing.T) {
	a := &schema.ActionDefinition{
		ID:             "check",
		Fields:         []schema.FieldDefinition{{Name: "count", Kind: schema.KindNumber}},
		PromptTemplate: `Count {count}{good}{bad}{text}`,
		TemplateRules: map[string]schema.TemplateRule{
			"good": {Expr: `has(values.count)`, Template: "!"},
			"bad":  {Expr: `values.count >`, Template: "?"},
			"text": {Expr: `"abc"`, Template: "."},
		},
	}
	issues := quietRenderer().Check(a)
	var rules []string
	for _, i := range issues {
		if i.Severity == schema.SeverityError {
			rules = append(rules, i.Rule)
		}
	}
	assert.ElementsMatch(t, []string{"bad", "text"}, rules)
}

func TestCleanup(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "  a   b  ", want: "a b"},
		{in: "a , b . c : d", want: "a, b. c: d"},
		{in: "a,,b", want: "a,b"},
		{in: "a,,,b", want: "a,b"},
		{in: "end..", want: "end."},
		{in: "end. .", want: "end."},
		{in: "end, .", want: "end."},
		{in: "list , , .", want: "list."},
		{in: "\n\tline\none\t", want: "line one"},
		{in: "a\v\vb", want: "a b"},
		{in: "a\u00a0\u00a0b", want: "a b"},
		{in: "done\u00a0.", want: "done."},
		{in: "x\v, y", want: "x, y"},
		{in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Cleanup(tt.in))
		})
	}
}

func TestCleanupIdempotentProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	idempotent := func(s string) bool {
		once := Cleanup(s)
		return Cleanup(once) == once
	}
	properties.Property("punctuation-heavy strings", prop.ForAll(idempotent, gen.RegexMatch(`[ a.,:\t\n]{0,40}`)))
	properties.Property("arbitrary strings", prop.ForAll(idempotent, gen.AnyString()))

	properties.TestingRun(t)
}

func TestRenderDeterministic(t *testing.T) {
	a := &schema.ActionDefinition{
		ID:             "many",
		Fields:         []schema.FieldDefinition{{Name: "x", Kind: schema.KindText}},
		PromptTemplate: `{a}{b}{c}{d}{x}`,
		TemplateRules: map[string]schema.TemplateRule{
			"a": {Template: "A"},
			"b": {Template: "B{x}"},
			"c": {Condition: "notEmpty", Field: "x", Template: "C"},
			"d": {Template: "D"},
		},
	}
	r := quietRenderer()
	first := r.Render(a, schema.FormValues{"x": "1"})
	require.Equal(t, "AB1CD1", first)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, r.Render(a, schema.FormValues{"x": "1"}))
	}
	assert.False(t, strings.Contains(r.Render(a, schema.FormValues{}), "{"))
}
