// Copyright 2025.
// SPDX-License-Identifier: Apache-2.0

package manifest

// LatestVersion is the reserved literal resolving to the current
// (last-inserted) version of a model in deploy requests.
const LatestVersion = "latest"

// StoredManifest is the durable per-name aggregate: an ordered history of
// manifest versions plus, optionally, which one is deployed.
//
// Invariants, enforced by every mutating method:
//  1. versions[i].Version are pairwise distinct.
//  2. if DeployedVersion != "", a matching element exists in Versions.
//  3. Metadata.Name is identical across every element and equal to the
//     store key (enforced by the handler, not this type).
type StoredManifest struct {
	Versions        []Manifest
	DeployedVersion string
}

// IsEmpty reports whether the aggregate holds no versions.
func (sm *StoredManifest) IsEmpty() bool {
	return len(sm.Versions) == 0
}

// Count returns the number of stored versions.
func (sm *StoredManifest) Count() int {
	return len(sm.Versions)
}

// Name returns the aggregate's name, taken from its current version, or
// the empty string if the aggregate is empty.
func (sm *StoredManifest) Name() string {
	if sm.IsEmpty() {
		return ""
	}
	return sm.GetCurrent().Metadata.Name
}

// AddVersion appends m iff no existing version shares its Version
// string. Returns whether it was added.
func (sm *StoredManifest) AddVersion(m Manifest) bool {
	if _, ok := sm.GetVersion(m.Version); ok {
		return false
	}
	sm.Versions = append(sm.Versions, m)
	return true
}

// GetVersion returns the manifest stored under the given version string.
func (sm *StoredManifest) GetVersion(version string) (Manifest, bool) {
	for _, m := range sm.Versions {
		if m.Version == version {
			return m, true
		}
	}
	return Manifest{}, false
}

// GetCurrent returns the last-inserted manifest. Precondition: non-empty.
func (sm *StoredManifest) GetCurrent() Manifest {
	return sm.Versions[len(sm.Versions)-1]
}

// AllVersions returns version strings in insertion order.
func (sm *StoredManifest) AllVersions() []string {
	out := make([]string, len(sm.Versions))
	for i, m := range sm.Versions {
		out[i] = m.Version
	}
	return out
}

// DeleteVersion removes the manifest stored under version, if present.
// If the deleted version was the deployed one, DeployedVersion is
// cleared; the caller is responsible for treating that as an undeploy
// hint per the handler's delete_model algorithm.
func (sm *StoredManifest) DeleteVersion(version string) bool {
	for i, m := range sm.Versions {
		if m.Version != version {
			continue
		}
		sm.Versions = append(sm.Versions[:i], sm.Versions[i+1:]...)
		if sm.DeployedVersion == version {
			sm.DeployedVersion = ""
		}
		return true
	}
	return false
}

// Deploy sets DeployedVersion to the resolved target: version itself, or
// the current version if version is empty or LatestVersion. Returns
// whether a matching version exists (and was therefore set).
func (sm *StoredManifest) Deploy(version string) bool {
	target := version
	if target == "" || target == LatestVersion {
		if sm.IsEmpty() {
			return false
		}
		target = sm.GetCurrent().Version
	}
	if _, ok := sm.GetVersion(target); !ok {
		return false
	}
	sm.DeployedVersion = target
	return true
}

// Undeploy clears DeployedVersion. Returns whether it was previously set.
func (sm *StoredManifest) Undeploy() bool {
	changed := sm.DeployedVersion != ""
	sm.DeployedVersion = ""
	return changed
}

// IsDeployed reports whether version is the currently deployed version.
func (sm *StoredManifest) IsDeployed(version string) bool {
	return sm.DeployedVersion != "" && sm.DeployedVersion == version
}

// GetDeployed returns the currently deployed manifest, if any.
func (sm *StoredManifest) GetDeployed() (Manifest, bool) {
	if sm.DeployedVersion == "" {
		return Manifest{}, false
	}
	return sm.GetVersion(sm.DeployedVersion)
}
