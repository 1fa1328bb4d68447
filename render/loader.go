package render

import (
	"os"

	"github.com/cockroachdb/errors"
)

// LoadShaderFile reads a compiled shader binary whole. The contents are not
// inspected beyond checking for SPIR-V word alignment.
func LoadShaderFile(path string) ([]byte, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load shader %s", path)
	}

	if len(code) == 0 || len(code)%4 != 0 {
		return nil, errors.Newf("load shader %s: size %d is not a whole number of words", path, len(code))
	}

	return code, nil
}
