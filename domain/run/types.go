package run

import (
	"crypto/sha256"
	"fmt"

	"breakfit/domain/core"
)

// CodeVersion is stamped on every fingerprint so that changes to the search
// invalidate memoised and stored results
const CodeVersion = "breakfit/1"

// RunFingerprint ensures deterministic replay
type RunFingerprint struct {
	DatasetHash core.DatasetHash `json:"dataset_hash"`
	ConfigHash  core.Hash        `json:"config_hash"`
	Seed        int64            `json:"seed"`
	CodeVersion string           `json:"code_version"`
	Fingerprint core.Hash        `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters
func NewRunFingerprint(datasetHash core.DatasetHash, configHash core.Hash, seed int64, codeVersion string) RunFingerprint {
	return RunFingerprint{
		DatasetHash: datasetHash,
		ConfigHash:  configHash,
		Seed:        seed,
		CodeVersion: codeVersion,
		Fingerprint: computeRunFingerprint(datasetHash, configHash, seed, codeVersion),
	}
}

func computeRunFingerprint(datasetHash core.DatasetHash, configHash core.Hash, seed int64, codeVersion string) core.Hash {
	data := fmt.Sprintf("%s|%s|%d|%s", datasetHash, configHash, seed, codeVersion)
	sum := sha256.Sum256([]byte(data))
	return core.Hash(fmt.Sprintf("%x", sum))
}

// Verify recomputes the fingerprint from its parts
func (f RunFingerprint) Verify() bool {
	return f.Fingerprint == computeRunFingerprint(f.DatasetHash, f.ConfigHash, f.Seed, f.CodeVersion)
}
