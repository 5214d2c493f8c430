package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ChecksumFileName is written next to the config file by Lock.
const ChecksumFileName = ".checksums"

// ChecksumManifest is the on-disk format of the .checksums file.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// ComputeBlake3Hash computes the BLAKE3 hash of a file.
func ComputeBlake3Hash(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}

// VerifyFileHash verifies a file against an expected BLAKE3 hash.
func VerifyFileHash(filePath, expectedHash string) error {
	actualHash, err := ComputeBlake3Hash(filePath)
	if err != nil {
		return fmt.Errorf("failed to compute hash: %w", err)
	}

	if actualHash != expectedHash {
		return fmt.Errorf("hash mismatch for %s: expected %s, got %s",
			filepath.Base(filePath), expectedHash, actualHash)
	}
	return nil
}

// Lock hashes the config file at configPath and writes .checksums beside it.
// It returns the path of the manifest.
func Lock(configPath string) (string, error) {
	absPath, err := resolveConfigPath(configPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s", configPath)
	}

	hash, err := ComputeBlake3Hash(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", absPath, err)
	}

	manifest := ChecksumManifest{
		Version:     1,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Hashes:      map[string]string{filepath.Base(absPath): hash},
	}
	data, err := yaml.Marshal(manifest)
	if err != nil {
		return "", fmt.Errorf("failed to marshal checksums: %w", err)
	}

	checksumPath := filepath.Join(filepath.Dir(absPath), ChecksumFileName)
	// Restrictive permissions: the manifest is the trust anchor for the config.
	if err := os.WriteFile(checksumPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write checksums: %w", err)
	}
	return checksumPath, nil
}

// LoadChecksums reads the .checksums file from a config directory. ok is
// false when no manifest exists.
func LoadChecksums(configDir string) (manifest *ChecksumManifest, ok bool, err error) {
	data, err := os.ReadFile(filepath.Join(configDir, ChecksumFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read checksums: %w", err)
	}

	var m ChecksumManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, false, fmt.Errorf("failed to parse checksums: %w", err)
	}
	if m.Version != 1 {
		return nil, false, fmt.Errorf("unsupported checksums version: %d", m.Version)
	}
	return &m, true, nil
}

// verifyChecksum checks configPath against a .checksums manifest in the same
// directory. Configs without a manifest are accepted.
func verifyChecksum(configPath string) error {
	manifest, ok, err := LoadChecksums(filepath.Dir(configPath))
	if err != nil || !ok {
		return err
	}

	name := filepath.Base(configPath)
	expected, listed := manifest.Hashes[name]
	if !listed {
		return fmt.Errorf("%s has no hash in %s (run 'slashgw config lock')", name, ChecksumFileName)
	}
	if err := VerifyFileHash(configPath, expected); err != nil {
		return fmt.Errorf("config verification failed: %w\n"+
			"If you edited this file intentionally, run: slashgw config lock", err)
	}
	return nil
}
