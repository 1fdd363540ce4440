package buses

import (
	"testing"

	"go.viam.com/test"
)

func TestI2CConfigValidate(t *testing.T) {
	conf := I2CConfig{}
	err := conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"name" is required`)

	conf.Name = "main"
	err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `"bus" is required`)

	conf.Bus = "-3"
	err = conf.Validate("path")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "invalid bus number -3")

	conf.Bus = "3"
	test.That(t, conf.Validate("path"), test.ShouldBeNil)
	path, err := conf.Path()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, path, test.ShouldEqual, "/dev/i2c-3")
}

func TestDecodeI2CConfig(t *testing.T) {
	conf, err := DecodeI2CConfig(map[string]interface{}{
		"name":  "main",
		"bus":   1,
		"force": true,
		"pec":   "true",
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, *conf, test.ShouldResemble, I2CConfig{Name: "main", Bus: "1", Force: true, PEC: true})
	test.That(t, conf.Validate("i2cs.0"), test.ShouldBeNil)

	conf, err = DecodeI2CConfig(map[string]interface{}{"name": "aux", "bus": "/dev/i2c-4"})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, conf.Bus, test.ShouldEqual, "/dev/i2c-4")
	test.That(t, conf.Force, test.ShouldBeFalse)

	_, err = DecodeI2CConfig(map[string]interface{}{"name": "aux", "speed": 400000})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "speed")
}
