package schemamap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("matches by fragment case-insensitively", func(t *testing.T) {
		headers := []string{"Student ID Number", "FIRST NAME", "Last Name", "Primary Email Address"}
		mapping := Resolve(headers, StudentCatalogue())

		assert.Equal(t, "Student ID Number", mapping.Header(FieldStudentID))
		assert.Equal(t, "FIRST NAME", mapping.Header(FieldFirstName))
		assert.Equal(t, "Last Name", mapping.Header(FieldLastName))
		assert.Equal(t, "Primary Email Address", mapping.Header(FieldEmail))
	})

	t.Run("fragment priority beats column order", func(t *testing.T) {
		// "id" alone would match the first header, but the higher-priority
		// "student id" fragment pulls the mapping to the second.
		headers := []string{"Org ID", "Student ID"}
		mapping := Resolve(headers, StudentCatalogue())
		assert.Equal(t, "Student ID", mapping.Header(FieldStudentID))
	})

	t.Run("first header wins within one fragment", func(t *testing.T) {
		headers := []string{"Location Preference A", "Location Preference B"}
		mapping := Resolve(headers, StudentCatalogue())
		assert.Equal(t, "Location Preference A", mapping.Header(FieldLocationPref))
	})

	t.Run("unresolved fields listed in catalogue order", func(t *testing.T) {
		headers := []string{"Organization Name"}
		mapping := Resolve(headers, OrganizationCatalogue())

		assert.True(t, mapping.Has(FieldOrgName))
		assert.False(t, mapping.Has(FieldOrgPositions))
		assert.Contains(t, mapping.Unresolved, FieldOrgPositions)
		assert.Contains(t, mapping.Unresolved, FieldOrgEmail)
	})

	t.Run("deterministic across repeated runs", func(t *testing.T) {
		headers := []string{"Name", "Email", "Location", "Positions", "Status", "Website"}
		first := Resolve(headers, OrganizationCatalogue())
		for i := 0; i < 10; i++ {
			again := Resolve(headers, OrganizationCatalogue())
			assert.Equal(t, first.Columns, again.Columns)
			assert.Equal(t, first.Unresolved, again.Unresolved)
		}
	})

	t.Run("area slots map independently", func(t *testing.T) {
		headers := []string{"Area of Law 1", "Area of Law 2", "Statement of Interest 1"}
		mapping := Resolve(headers, StudentCatalogue())

		assert.Equal(t, "Area of Law 1", mapping.Header(AreaFields[0]))
		assert.Equal(t, "Area of Law 2", mapping.Header(AreaFields[1]))
		assert.Equal(t, "Statement of Interest 1", mapping.Header(StatementFields[0]))
		assert.False(t, mapping.Has(AreaFields[2]))
	})
}
