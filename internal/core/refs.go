package core

import (
	"regexp"
	"strings"
)

// referenceProgram recognizes one activation program's reference format.
type referenceProgram struct {
	name    string
	pattern *regexp.Regexp
	myKey   string
	hisKey  string
}

// referencePrograms is checked in order; WWFF must precede POTA because
// "JAFF-0001" also fits the shorter POTA shape.
var referencePrograms = []referenceProgram{
	{
		name:    "SOTA",
		pattern: regexp.MustCompile(`^[A-Z0-9]{1,8}/[A-Z0-9]{2}-\d{3}$`),
		myKey:   "MY_SOTA_REF",
		hisKey:  "SOTA_REF",
	},
	{
		name:    "WWFF",
		pattern: regexp.MustCompile(`^[A-Z0-9]{1,4}FF-\d{4}$`),
		myKey:   "MY_WWFF_REF",
		hisKey:  "WWFF_REF",
	},
	{
		name:    "POTA",
		pattern: regexp.MustCompile(`^[A-Z0-9]{1,4}-\d{4,5}$`),
		myKey:   "MY_POTA_REF",
		hisKey:  "POTA_REF",
	},
}

// SignatureTags turns a comma-separated reference list into ADIF tags.
//
// References are grouped by program in program order. SOTA and WWFF allow a
// single reference per QSO, so only the first of each is kept; POTA
// references are joined with commas for multi-park activations. References
// matching no known program are emitted as MY_SIG_INFO (or SIG_INFO).
// An empty list yields nil.
func SignatureTags(refs string, mine bool) []SignatureTag {
	grouped := make(map[string][]string)
	var other []string
	seen := make(map[string]bool)

	for _, ref := range strings.Split(refs, ",") {
		ref = strings.ToUpper(strings.TrimSpace(ref))
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true

		p, ok := firstMatch(referencePrograms, func(p referenceProgram) bool {
			return p.pattern.MatchString(ref)
		})
		if !ok {
			other = append(other, ref)
			continue
		}
		grouped[p.name] = append(grouped[p.name], ref)
	}

	var tags []SignatureTag
	for _, p := range referencePrograms {
		list := grouped[p.name]
		if len(list) == 0 {
			continue
		}
		key := p.hisKey
		if mine {
			key = p.myKey
		}
		value := list[0]
		if p.name == "POTA" {
			value = strings.Join(list, ",")
		}
		tags = append(tags, SignatureTag{Key: key, Value: value})
	}

	if len(other) > 0 {
		key := "SIG_INFO"
		if mine {
			key = "MY_SIG_INFO"
		}
		tags = append(tags, SignatureTag{Key: key, Value: strings.Join(other, ",")})
	}

	return tags
}
