package env

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/keboola/kv-relay/internal/pkg/log"
	"github.com/keboola/kv-relay/internal/pkg/utils/errors"
)

// Files returns the supported env file names, in load order.
func Files() []string {
	return []string{".env.local", ".env"}
}

// LoadDotEnv loads envs from an ".env" file, if it exists in the dir.
// Existing envs take precedence.
func LoadDotEnv(logger log.Logger, osEnvs *Map, dir string) *Map {
	envs := osEnvs.Clone()

	for _, file := range Files() {
		path := filepath.Join(dir, file)
		info, err := os.Stat(path)
		switch {
		case err == nil && info.IsDir():
			// Expected file, found dir
			continue
		case err != nil && os.IsNotExist(err):
			continue
		case err != nil:
			logger.Warnf(`cannot check if path "%s" exists: %s`, path, err)
			continue
		}

		fileEnvs, err := loadEnvFile(path)
		if err != nil {
			logger.Warnf(`%s`, err)
			continue
		}
		logger.Infof(`loaded env file "%s"`, path)

		// Merge ENVs, existing keys take precedence.
		envs.Merge(fileEnvs, false)
	}

	return envs
}

func loadEnvFile(path string) (*Map, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, `cannot read env file "%s"`, path)
	}

	data, err := godotenv.Unmarshal(string(content))
	if err != nil {
		return nil, errors.Wrapf(err, `cannot parse env file "%s"`, path)
	}

	return FromMap(data), nil
}
