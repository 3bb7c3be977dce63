package schema

// Keys read and written by the value preprocessor.
const (
	KeyTerm          = "term"
	KeyTermFormatted = "termFormatted"

	KeyRecipientType        = "recipientType"
	KeyCriteriaDescription  = "criteriaDescription"
	KeyStudentNames         = "studentNames"
	KeyRecipientDescription = "recipientDescription"

	KeyCriteria     = "criteria"
	KeyCriteriaText = "criteriaText"

	KeyDownloadScope = "downloadScope"
	KeyFolderName    = "folderName"
	KeyFileType      = "fileType"
	KeyDownloadText  = "downloadText"

	FileListSuffix = "List"
)

// Derivation names a derived key, the key that triggers it and the other
// raw keys it reads.
type Derivation struct {
	Trigger string
	Target  string
	Reads   []string
}

// Derivations lists the fixed preprocessor rules, file lists excluded.
var Derivations = []Derivation{
	{Trigger: KeyTerm, Target: KeyTermFormatted},
	{Trigger: KeyRecipientType, Target: KeyRecipientDescription, Reads: []string{KeyCriteriaDescription, KeyStudentNames}},
	{Trigger: KeyCriteria, Target: KeyCriteriaText},
	{Trigger: KeyDownloadScope, Target: KeyDownloadText, Reads: []string{KeyFolderName, KeyFileType}},
}

// FileListKey is the derived key holding the joined names of a file field.
func FileListKey(name string) string {
	return name + FileListSuffix
}

// DerivableKeys maps every key the preprocessor can add for this action to
// the field that triggers it.
func (a *ActionDefinition) DerivableKeys() map[string]string {
	keys := make(map[string]string)
	for _, f := range a.Fields {
		if f.Kind == KindFiles {
			keys[FileListKey(f.Name)] = f.Name
		}
		for _, d := range Derivations {
			if d.Trigger == f.Name {
				keys[d.Target] = f.Name
			}
		}
	}
	return keys
}

// KnownKeys is every key a template of this action may reference: fields,
// rule keys and derivable keys.
func (a *ActionDefinition) KnownKeys() map[string]bool {
	known := make(map[string]bool, len(a.Fields)+len(a.TemplateRules))
	for _, f := range a.Fields {
		known[f.Name] = true
	}
	for k := range a.TemplateRules {
		known[k] = true
	}
	for k := range a.DerivableKeys() {
		known[k] = true
	}
	return known
}
