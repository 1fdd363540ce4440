package buses

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/smbus/smbus"
)

// I2CConfig enumerates a specific, shareable I2C bus.
type I2CConfig struct {
	Name  string `json:"name"`
	Bus   string `json:"bus"`
	Force bool   `json:"force,omitempty"`
	PEC   bool   `json:"pec,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (config *I2CConfig) Validate(path string) error {
	if config.Name == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "name")
	}
	if config.Bus == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "bus")
	}
	if _, err := smbus.ParseTarget(config.Bus); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// Path returns the device node the bus refers to.
func (config *I2CConfig) Path() (string, error) {
	return smbus.ParseTarget(config.Bus)
}

// DecodeI2CConfig converts loosely typed attributes, e.g. from a JSON document, into an I2CConfig.
// Numeric bus values are accepted.
func DecodeI2CConfig(attrs map[string]interface{}) (*I2CConfig, error) {
	var conf I2CConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "cannot create i2c config decoder")
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "cannot decode i2c config")
	}
	return &conf, nil
}

func indexedPath(idx int) string {
	return fmt.Sprintf("i2cs.%d", idx)
}
