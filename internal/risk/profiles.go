package risk

import (
	"sort"
	"strings"

	"workshift-engine/internal/domain"
)

// Factor names shared by profiles, config overlays and reference CSVs.
const (
	FactorRoutineTasks     = "routine_tasks"
	FactorDataProcessing   = "data_processing"
	FactorHumanTouch       = "human_interaction"
	FactorCreativity       = "creative_problem_solving"
	FactorTechComplexity   = "technical_complexity"
	FactorPhysicalPresence = "physical_presence"
)

// Profile holds the raw factor levels for a role, each in [0,1].
type Profile struct {
	RoutineTasks     float64 `yaml:"routine_tasks"`
	DataProcessing   float64 `yaml:"data_processing"`
	HumanInteraction float64 `yaml:"human_interaction"`
	CreativeWork     float64 `yaml:"creative_problem_solving"`
	TechnicalComplex float64 `yaml:"technical_complexity"`
	PhysicalPresence float64 `yaml:"physical_presence"`
}

// factorWeights are the study's signed weights. Positive factors push a
// role toward automation; negative ones protect it. For scoring they are
// folded into a proper feature vector: |w|/sum(|w|) as the weight, and
// (1 - level) as the exposure for protective factors.
var factorWeights = []struct {
	name       string
	weight     float64
	protective bool
	level      func(Profile) float64
}{
	{FactorRoutineTasks, 0.30, false, func(p Profile) float64 { return p.RoutineTasks }},
	{FactorDataProcessing, 0.20, false, func(p Profile) float64 { return p.DataProcessing }},
	{FactorHumanTouch, 0.25, true, func(p Profile) float64 { return p.HumanInteraction }},
	{FactorCreativity, 0.30, true, func(p Profile) float64 { return p.CreativeWork }},
	{FactorTechComplexity, 0.15, true, func(p Profile) float64 { return p.TechnicalComplex }},
	{FactorPhysicalPresence, 0.10, true, func(p Profile) float64 { return p.PhysicalPresence }},
}

// Vector converts a role profile into a RiskFeatureVector whose weights
// sum to exactly 1.
func Vector(roleID string, p Profile) domain.RiskFeatureVector {
	var total float64
	for _, f := range factorWeights {
		total += f.weight
	}

	dims := make([]domain.RiskDimension, 0, len(factorWeights))
	for _, f := range factorWeights {
		exposure := f.level(p)
		if f.protective {
			exposure = 1 - exposure
		}
		dims = append(dims, domain.RiskDimension{
			Name:     f.name,
			Exposure: exposure,
			Weight:   f.weight / total,
		})
	}
	return domain.RiskFeatureVector{RoleID: roleID, Dimensions: dims}
}

// builtinProfiles came out of the WorkShift risk study. Overlayable from
// the profiles file, see config.OverlayProfiles.
var builtinProfiles = map[string]Profile{
	"Data Entry":                {0.95, 0.90, 0.10, 0.05, 0.20, 0.05},
	"QA Tester":                 {0.70, 0.60, 0.30, 0.30, 0.40, 0.10},
	"Data Analyst":              {0.60, 0.85, 0.40, 0.50, 0.60, 0.05},
	"Frontend Developer":        {0.50, 0.40, 0.50, 0.70, 0.70, 0.05},
	"Backend Developer":         {0.55, 0.60, 0.35, 0.65, 0.80, 0.05},
	"Full Stack Developer":      {0.45, 0.50, 0.45, 0.75, 0.85, 0.05},
	"DevOps Engineer":           {0.65, 0.55, 0.40, 0.60, 0.90, 0.10},
	"Machine Learning Engineer": {0.40, 0.80, 0.35, 0.85, 0.95, 0.05},
	"Data Scientist":            {0.35, 0.85, 0.45, 0.90, 0.90, 0.05},
	"Software Engineer":         {0.40, 0.50, 0.50, 0.80, 0.85, 0.05},
	"Cloud Engineer":            {0.55, 0.50, 0.35, 0.65, 0.85, 0.05},
	"Security Engineer":         {0.45, 0.60, 0.40, 0.80, 0.90, 0.10},
	"Product Manager":           {0.30, 0.40, 0.90, 0.85, 0.50, 0.40},
	"Engineering Manager":       {0.25, 0.30, 0.95, 0.80, 0.60, 0.50},
}

// Profiles returns a copy of the built-in role profiles so overlays can't
// mutate the defaults.
func Profiles() map[string]Profile {
	out := make(map[string]Profile, len(builtinProfiles))
	for k, v := range builtinProfiles {
		out[k] = v
	}
	return out
}

// RoleIDs returns profile names sorted, for deterministic iteration.
func RoleIDs(profiles map[string]Profile) []string {
	ids := make([]string, 0, len(profiles))
	for id := range profiles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// titleKeywords map ad-hoc job titles onto profile names. Checked in
// order: more specific phrases come before generic ones.
var titleKeywords = []struct {
	needle   string
	category string
}{
	{"machine learning", "Machine Learning Engineer"},
	{"data scientist", "Data Scientist"},
	{"data analyst", "Data Analyst"},
	{"data entry", "Data Entry"},
	{"product manager", "Product Manager"},
	{"engineering manager", "Engineering Manager"},
	{"devops", "DevOps Engineer"},
	{"frontend", "Frontend Developer"},
	{"front end", "Frontend Developer"},
	{"backend", "Backend Developer"},
	{"back end", "Backend Developer"},
	{"full stack", "Full Stack Developer"},
	{"cloud engineer", "Cloud Engineer"},
	{"security engineer", "Security Engineer"},
	{"qa", "QA Tester"},
	{"software engineer", "Software Engineer"},
	{"software developer", "Software Engineer"},
}

// CategoryForTitle maps a raw job title to a profile name, falling back to
// Software Engineer like the original study did.
func CategoryForTitle(title string) string {
	low := strings.ToLower(title)
	for _, kw := range titleKeywords {
		if strings.Contains(low, kw.needle) {
			return kw.category
		}
	}
	return "Software Engineer"
}
