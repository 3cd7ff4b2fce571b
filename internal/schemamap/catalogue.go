package schemamap

// Canonical field names for student imports.
const (
	FieldStudentID       = "student_id"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldEmail           = "email"
	FieldBackupEmail     = "backup_email"
	FieldProgram         = "program"
	FieldLocationPref    = "location_pref"
	FieldWorkPref        = "work_pref"
	FieldSelfPropOrg     = "self_prop_org"
	FieldSelfPropSup     = "self_prop_sup"
	FieldSelfPropEmail   = "self_prop_email"
	FieldSelfPropAddress = "self_prop_address"
	FieldSelfPropWebsite = "self_prop_website"
)

// AreaField and StatementField name the per-slot canonical fields, 1-based.
var (
	AreaFields      = []string{"area_1", "area_2", "area_3", "area_4", "area_5"}
	StatementFields = []string{"statement_1", "statement_2", "statement_3", "statement_4", "statement_5"}
)

// Canonical field names for organization imports.
const (
	FieldOrgName         = "name"
	FieldOrgDescription  = "description"
	FieldOrgAreas        = "areas_of_law"
	FieldOrgLocation     = "location"
	FieldOrgEmail        = "email"
	FieldOrgPhone        = "phone"
	FieldOrgWebsite      = "website"
	FieldOrgRequirements = "requirements"
	FieldOrgPositions    = "positions"
	FieldOrgWorkMode     = "work_mode"
	FieldOrgActive       = "is_active"
)

// StudentCatalogue lists the header fragments accepted for each canonical
// student field, in priority order. Fragment lists come from years of
// inconsistent spreadsheet layouts.
func StudentCatalogue() []FieldPattern {
	return []FieldPattern{
		{Field: FieldStudentID, Fragments: []string{"student id", "student_id", "id"}},
		{Field: FieldFirstName, Fragments: []string{"first name", "firstname", "given name", "first"}},
		{Field: FieldLastName, Fragments: []string{"last name", "lastname", "surname", "last"}},
		{Field: FieldEmail, Fragments: []string{"primary email", "student email", "email"}},
		{Field: FieldBackupEmail, Fragments: []string{"backup email", "secondary email", "alternate email"}},
		{Field: FieldProgram, Fragments: []string{"program", "degree"}},
		{Field: AreaFields[0], Fragments: []string{"area 1", "first area", "1st area", "area of law 1"}},
		{Field: AreaFields[1], Fragments: []string{"area 2", "second area", "2nd area", "area of law 2"}},
		{Field: AreaFields[2], Fragments: []string{"area 3", "third area", "3rd area", "area of law 3"}},
		{Field: AreaFields[3], Fragments: []string{"area 4", "fourth area", "4th area", "area of law 4"}},
		{Field: AreaFields[4], Fragments: []string{"area 5", "fifth area", "5th area", "area of law 5"}},
		{Field: StatementFields[0], Fragments: []string{"statement 1", "1st statement", "statement of interest 1"}},
		{Field: StatementFields[1], Fragments: []string{"statement 2", "2nd statement", "statement of interest 2"}},
		{Field: StatementFields[2], Fragments: []string{"statement 3", "3rd statement", "statement of interest 3"}},
		{Field: StatementFields[3], Fragments: []string{"statement 4", "4th statement", "statement of interest 4"}},
		{Field: StatementFields[4], Fragments: []string{"statement 5", "5th statement", "statement of interest 5"}},
		{Field: FieldLocationPref, Fragments: []string{"location preference", "preferred location", "location"}},
		{Field: FieldWorkPref, Fragments: []string{"work preference", "working preference", "work type", "work"}},
		{Field: FieldSelfPropOrg, Fragments: []string{"self proposed organization", "self-proposed organization"}},
		{Field: FieldSelfPropSup, Fragments: []string{"self-proposed supervisor", "supervisor name", "supervisor"}},
		{Field: FieldSelfPropEmail, Fragments: []string{"supervisor email", "self-proposed email"}},
		{Field: FieldSelfPropAddress, Fragments: []string{"organization address", "supervisor address"}},
		{Field: FieldSelfPropWebsite, Fragments: []string{"organization website", "org website"}},
	}
}

// OrganizationCatalogue lists the header fragments accepted for each
// canonical organization field, in priority order.
func OrganizationCatalogue() []FieldPattern {
	return []FieldPattern{
		{Field: FieldOrgName, Fragments: []string{"organization name", "org name", "name"}},
		{Field: FieldOrgDescription, Fragments: []string{"description", "about", "overview"}},
		{Field: FieldOrgAreas, Fragments: []string{"areas of law", "practice areas", "legal areas"}},
		{Field: FieldOrgLocation, Fragments: []string{"location", "address", "city"}},
		{Field: FieldOrgEmail, Fragments: []string{"contact email", "email"}},
		{Field: FieldOrgPhone, Fragments: []string{"phone number", "contact phone", "phone"}},
		{Field: FieldOrgWebsite, Fragments: []string{"website", "url", "site"}},
		{Field: FieldOrgRequirements, Fragments: []string{"requirements", "prerequisites", "qualifications"}},
		{Field: FieldOrgPositions, Fragments: []string{"available positions", "positions", "openings"}},
		{Field: FieldOrgWorkMode, Fragments: []string{"work mode", "work arrangement", "work type"}},
		{Field: FieldOrgActive, Fragments: []string{"is active", "active", "status"}},
	}
}
