package catalog

import "github.com/teilomillet/promptbuilder/schema"

// Courses returns every declared course.
func (c *Catalog) Courses() []schema.Course {
	return c.doc.Courses
}

// CoursesByTerm returns the courses offered in term. An empty term selects
// all courses.
func (c *Catalog) CoursesByTerm(term string) []schema.Course {
	if term == "" {
		return c.doc.Courses
	}
	var out []schema.Course
	for _, course := range c.doc.Courses {
		if course.Term == term {
			out = append(out, course)
		}
	}
	return out
}

// CourseByName returns the course with the given display name.
func (c *Catalog) CourseByName(name string) (schema.Course, bool) {
	for _, course := range c.doc.Courses {
		if course.Name == name {
			return course, true
		}
	}
	return schema.Course{}, false
}

// FilterCourses narrows the course choices to term and reports whether the
// current selection survives. An empty selection always survives.
func (c *Catalog) FilterCourses(term, current string) ([]schema.Course, bool) {
	courses := c.CoursesByTerm(term)
	if current == "" {
		return courses, true
	}
	for _, course := range courses {
		if course.Name == current {
			return courses, true
		}
	}
	return courses, false
}
