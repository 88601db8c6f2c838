package fileurl

import (
	"os"
	"path/filepath"
)

// IsExist determines if the given path exists
// IsExist 判断所给路径是否存在
func IsExist(dst string) bool {
	_, err := os.Stat(dst)
	if err != nil {
		return os.IsExist(err)
	}
	return true
}

// CreatePath creates path
// CreatePath 创建路径
func CreatePath(dst string, perm os.FileMode) error {
	dir := filepath.Dir(dst)
	return os.MkdirAll(dir, perm)
}
