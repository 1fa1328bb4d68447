// Package config reads demo settings from the environment and an optional
// .env file.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	"github.com/vkngwrapper/core/common"
)

type Config struct {
	AppName    string
	AppVersion common.Version
	Debug      bool
	LogLevel   string

	WindowTitle  string
	WindowWidth  uint32
	WindowHeight uint32

	VertexShader   string
	FragmentShader string
	MeshPath       string
	TexturePath    string

	AcquireAttempts int
	AcquireTimeout  time.Duration
	FramesInFlight  int
}

// Load reads path into the environment when it exists, then builds a Config
// from the MW_ variables. Variables already set take precedence over the
// file.
func Load(path string) (Config, error) {
	if path != "" {
		err := godotenv.Load(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", path)
		}
		envy.Reload()
	}

	return parse(envy.Get)
}

func parse(get func(key, value string) string) (Config, error) {
	var cfg Config
	var err error

	cfg.AppName = get("MW_APP_NAME", "mwdemo")
	cfg.AppVersion, err = ParseVersion(get("MW_APP_VERSION", "0.1.0"))
	if err != nil {
		return Config{}, err
	}
	if cfg.Debug, err = parseBool(get, "MW_DEBUG", "false"); err != nil {
		return Config{}, err
	}
	cfg.LogLevel = get("MW_LOG_LEVEL", "info")

	cfg.WindowTitle = get("MW_WINDOW_TITLE", cfg.AppName)
	if cfg.WindowWidth, err = parseDimension(get, "MW_WINDOW_WIDTH", "800"); err != nil {
		return Config{}, err
	}
	if cfg.WindowHeight, err = parseDimension(get, "MW_WINDOW_HEIGHT", "600"); err != nil {
		return Config{}, err
	}

	cfg.VertexShader = get("MW_VERTEX_SHADER", "shaders/vert.spv")
	cfg.FragmentShader = get("MW_FRAGMENT_SHADER", "shaders/frag.spv")
	cfg.MeshPath = get("MW_MESH", "")
	cfg.TexturePath = get("MW_TEXTURE", "")

	if cfg.AcquireAttempts, err = parsePositive(get, "MW_ACQUIRE_ATTEMPTS", "3"); err != nil {
		return Config{}, err
	}
	if cfg.FramesInFlight, err = parsePositive(get, "MW_FRAMES_IN_FLIGHT", "2"); err != nil {
		return Config{}, err
	}

	raw := get("MW_ACQUIRE_TIMEOUT", "1s")
	cfg.AcquireTimeout, err = time.ParseDuration(raw)
	if err != nil || cfg.AcquireTimeout <= 0 {
		return Config{}, errors.Newf("MW_ACQUIRE_TIMEOUT: invalid duration %q", raw)
	}

	return cfg, nil
}

// ParseVersion reads "major.minor.patch". Missing trailing components are
// zero.
func ParseVersion(s string) (common.Version, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) > 3 {
		return 0, errors.Newf("version %q has too many components", s)
	}

	var numbers [3]uint32
	for i, part := range parts {
		n, err := strconv.ParseUint(part, 10, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "version %q", s)
		}
		numbers[i] = uint32(n)
	}

	return common.CreateVersion(numbers[0], numbers[1], numbers[2]), nil
}

func parseBool(get func(key, value string) string, key, fallback string) (bool, error) {
	raw := get(key, fallback)
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, errors.Newf("%s: invalid bool %q", key, raw)
	}
	return value, nil
}

func parsePositive(get func(key, value string) string, key, fallback string) (int, error) {
	raw := get(key, fallback)
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, errors.Newf("%s: expected a positive integer, got %q", key, raw)
	}
	return value, nil
}

func parseDimension(get func(key, value string) string, key, fallback string) (uint32, error) {
	value, err := parsePositive(get, key, fallback)
	return uint32(value), err
}
