package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// DotEnvFile 是与配置文件放在一起的密钥文件（不进版本库）。
const DotEnvFile = ".env"

// Getenv 返回环境变量查找函数：进程环境优先，其次 <dir>/.env。
// .env 不存在不算错误；格式错误返回 *Error。
func Getenv(dir string) (func(string) string, error) {
	path := filepath.Join(dir, DotEnvFile)
	vars, err := godotenv.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
		}
		vars = nil
	}
	return func(k string) string {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
		return vars[k]
	}, nil
}
