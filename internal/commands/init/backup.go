package initcmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
)

// backupSuffix is appended to the config path for the copy kept by init.
const backupSuffix = ".bak"

// BackupConfig copies the config at configPath next to it before init
// overwrites it, replacing any earlier backup. It returns the backup path,
// or "" when there is no config to keep.
func BackupConfig(configPath string) (string, error) {
	content, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		return "", nil
	case err != nil:
		return "", fmt.Errorf("read config for backup: %w", err)
	}

	backupPath := configPath + backupSuffix
	if err := atomic.WriteFile(backupPath, bytes.NewReader(content)); err != nil {
		return "", fmt.Errorf("write config backup: %w", err)
	}
	return backupPath, nil
}

// ConfigExists reports whether a config file is present at configPath.
func ConfigExists(configPath string) bool {
	info, err := os.Stat(configPath)
	return err == nil && !info.IsDir()
}
