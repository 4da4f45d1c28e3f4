package status

// Receipt-number prefixes identify the office a case was filed with.
// The first three characters are assigned by the intake system and are
// the only structured information a bare case number carries.
var serviceCenters = map[string]string{
	"WAC": "California Service Center",
	"YSC": "Vermont Service Center",
	"LIN": "Nebraska Service Center",
	"SRC": "Texas Service Center",
	"MSC": "Missouri Service Center",
	"IOE": "Electronic Filing",
}

// the prefixes above are all used for employment-based petitons, so a
// recognized prefix implies the I-140 form
var formTypes = map[string]string{
	"WAC": "I-140",
	"YSC": "I-140",
	"LIN": "I-140",
	"SRC": "I-140",
	"MSC": "I-140",
	"IOE": "I-140",
}

var caseTypes = map[string]string{
	"I-140": "Immigrant Petition for Alien Worker",
	"I-485": "Application to Register Permanent Residence",
	"I-765": "Application for Employment Authorization",
	"I-131": "Application for Travel Document",
	"I-129": "Petition for Nonimmigrant Worker",
}

// FormTypeFromCaseNumber maps a receipt number to its form type via
// the 3-character prefix. Unrecognized prefixes fall back to the
// prefix itself so the report still shows something identifying.
func FormTypeFromCaseNumber(caseNumber string) string {
	if len(caseNumber) < 3 {
		return StatusUnknown
	}
	prefix := caseNumber[:3]
	if form, ok := formTypes[prefix]; ok {
		return form
	}
	return prefix
}

// ServiceCenterFromCaseNumber maps a receipt number to the regional
// office that issued it.
func ServiceCenterFromCaseNumber(caseNumber string) string {
	if len(caseNumber) < 3 {
		return StatusUnknown
	}
	if center, ok := serviceCenters[caseNumber[:3]]; ok {
		return center
	}
	return StatusUnknown
}

// CaseTypeFromFormType expands a form type into its descriptive name.
func CaseTypeFromFormType(formType string) string {
	if desc, ok := caseTypes[formType]; ok {
		return desc
	}
	return "Unknown Case Type"
}
