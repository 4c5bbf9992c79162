package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("maya@example.com"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail(""))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ng!pass"))

	assert.Error(t, ValidatePassword("short1!"))
	assert.Error(t, ValidatePassword("alllowercase1!"))
	assert.Error(t, ValidatePassword("NoDigitsHere!"))
	assert.Error(t, ValidatePassword("NoSpecials123"))
}

func TestValidateUser(t *testing.T) {
	valid := UserInput{
		Email:    "maya@example.com",
		Password: "Str0ng!pass",
		Name:     "Maya",
		Role:     "user",
	}
	assert.NoError(t, ValidateUser(valid))

	invalid := valid
	invalid.Role = "superhero"
	assert.Error(t, ValidateUser(invalid))

	invalid = valid
	invalid.Name = "M"
	assert.Error(t, ValidateUser(invalid))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.NoError(t, ValidatePhoneNumber("555-123-4567"))
	assert.NoError(t, ValidatePhoneNumber("(555)123-4567"))
	assert.NoError(t, ValidatePhoneNumber("+1551234567"))

	assert.Error(t, ValidatePhoneNumber("12"))
	assert.Error(t, ValidatePhoneNumber("phone"))
	assert.Error(t, ValidatePhoneNumber(""))
}

func TestValidatePostalCode(t *testing.T) {
	assert.NoError(t, ValidatePostalCode("62704"))
	assert.NoError(t, ValidatePostalCode("62704-1234"))

	assert.Error(t, ValidatePostalCode("abcde"))
	assert.Error(t, ValidatePostalCode("627"))
	assert.Error(t, ValidatePostalCode("62704-12"))
}
