package scoring

import (
	"sort"
	"strings"
)

// NormalizeSkill trims and case-folds a skill name.
func NormalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeSkills returns the set of normalized, non-blank skill names.
func NormalizeSkills(skills []string) map[string]struct{} {
	set := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		n := NormalizeSkill(s)
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return set
}

// Jaccard returns |A∩B| / |A∪B| over the normalized skill sets.
// If either set is empty the overlap is 0.
func Jaccard(a, b []string) float64 {
	setA := NormalizeSkills(a)
	setB := NormalizeSkills(b)
	return jaccardSets(setA, setB)
}

func jaccardSets(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}

	intersection := 0
	for s := range small {
		if _, ok := large[s]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection

	return float64(intersection) / float64(union)
}

// SkillBreakdown lists the job skills the candidate has and the ones missing,
// both normalized and sorted.
func SkillBreakdown(candidateSkills, jobSkills []string) (matched, missing []string) {
	have := NormalizeSkills(candidateSkills)
	want := NormalizeSkills(jobSkills)

	matched = make([]string, 0, len(want))
	missing = make([]string, 0)
	for s := range want {
		if _, ok := have[s]; ok {
			matched = append(matched, s)
		} else {
			missing = append(missing, s)
		}
	}
	sort.Strings(matched)
	sort.Strings(missing)
	return matched, missing
}
