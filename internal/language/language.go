package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Unknown is the marker used for tracks that carry no language property.
const Unknown = "N/A"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B when it differs (e.g. "fre" vs "fra")
	display string
}

var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
}

var byCode map[string]*entry

func init() {
	byCode = make(map[string]*entry, len(languages)*3)
	for i := range languages {
		e := &languages[i]
		byCode[e.code2] = e
		byCode[e.code3] = e
		if e.alt3 != "" {
			byCode[e.alt3] = e
		}
	}
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// DisplayName returns a human-readable language name for a track language code.
// Empty input and the unknown marker yield Unknown; codes that neither the
// built-in table nor the CLDR tables recognize are returned uppercased.
func DisplayName(code string) string {
	normalized := normalize(code)
	if normalized == "" || normalized == strings.ToLower(Unknown) || normalized == "und" {
		return Unknown
	}
	if e, ok := byCode[normalized]; ok {
		return e.display
	}
	if tag, err := xlanguage.Parse(normalized); err == nil {
		if name := display.English.Languages().Name(tag); name != "" {
			return name
		}
	}
	return strings.ToUpper(normalized)
}

// Contains reports whether code is a member of set. Comparison is on raw
// lowercase codes: "fre" does not match "fra".
func Contains(set []string, code string) bool {
	normalized := normalize(code)
	if normalized == "" {
		return false
	}
	for _, candidate := range set {
		if normalize(candidate) == normalized {
			return true
		}
	}
	return false
}
