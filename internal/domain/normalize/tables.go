package normalize

// abbreviations maps long-form business vocabulary to the short forms used for
// comparison.  Two names that differ only in these spellings normalize to the
// same string, which lifts their similarity to 1.0 before any fuzzy scoring.
// The optical-industry entries come from the vocabulary observed in the
// customer extracts; the generic corporate terms cover CRM exports at large.
var abbreviations = map[string]string{
	"optical":      "opt",
	"optometry":    "opt",
	"eyecare":      "eye",
	"eyewear":      "eye",
	"vision":       "vis",
	"lens":         "len",
	"lenses":       "len",
	"clinic":       "cl",
	"center":       "ctr",
	"centre":       "ctr",
	"associates":   "assoc",
	"professional": "prof",
	"family":       "fam",
	"group":        "grp",
	"company":      "co",
	"corporation":  "corp",
	"incorporated": "inc",
	"limited":      "ltd",
}

// numberWords maps spelled-out numbers to digits so that "Twenty Twenty
// Optical" and "2020 Optical" compare equal.  Tens before units: replacement
// runs on whole tokens, so order does not matter, but keeping the table
// grouped aids review.
var numberWords = map[string]string{
	"eleven":  "11",
	"twenty":  "20",
	"thirty":  "30",
	"forty":   "40",
	"fifty":   "50",
	"sixty":   "60",
	"seventy": "70",
	"eighty":  "80",
	"ninety":  "90",
	"zero":    "0",
	"one":     "1",
	"two":     "2",
	"three":   "3",
	"four":    "4",
	"five":    "5",
	"six":     "6",
	"seven":   "7",
	"eight":   "8",
	"nine":    "9",
}

// legalSuffixes are corporate designators stripped only when they are the
// trailing token of a name.  "Co" inside "Co Op Vision" is information;
// trailing "LLC" is noise.
var legalSuffixes = map[string]bool{
	"inc":  true,
	"llc":  true,
	"llp":  true,
	"co":   true,
	"ltd":  true,
	"corp": true,
	"pc":   true,
	"pllc": true,
	"sons": true,
}

// honorifics are personal-name titles stripped only when leading.
var honorifics = map[string]bool{
	"dr":   true,
	"mr":   true,
	"mrs":  true,
	"ms":   true,
	"prof": true,
}
