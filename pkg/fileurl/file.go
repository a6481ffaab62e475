package fileurl

import (
	"os"
	"path/filepath"
)

// IsDir 判断所给路径是否为文件夹
func IsDir(path string) bool {
	s, err := os.Stat(path)
	if err != nil {
		return false
	}
	return s.IsDir()
}

// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// FirstExisting returns the first candidate that exists on disk, or "" when none does
func FirstExisting(candidates ...string) string {
	for _, c := range candidates {
		if c != "" && IsExist(c) && !IsDir(c) {
			return c
		}
	}
	return ""
}

// CreatePath 创建文件所在目录
func CreatePath(dst string, perm os.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), perm)
}

// WriteNewFile writes content to dst, creating parent directories.
// It fails when dst already exists.
func WriteNewFile(dst string, content []byte, perm os.FileMode) error {
	if err := CreatePath(dst, 0754); err != nil {
		return err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
