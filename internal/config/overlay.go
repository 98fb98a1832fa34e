// config/overlay.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"workshift-engine/internal/risk"
)

type ProfilesFile struct {
	Profiles map[string]risk.Profile `yaml:"profiles"`
}

// OverlayProfiles merges a user profiles file over the built-in role
// profiles. Roles in the file replace or extend the defaults one by one.
func OverlayProfiles(base map[string]risk.Profile, profilesPath string) error {
	b, err := os.ReadFile(profilesPath)
	if err != nil {
		// Missing profiles file should not kill startup
		return nil
	}

	var pf ProfilesFile
	if err := yaml.Unmarshal(b, &pf); err != nil {
		return err
	}

	for role, p := range pf.Profiles {
		base[role] = p
	}
	return nil
}
