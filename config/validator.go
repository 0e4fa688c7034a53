package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/sqs2s3/internal/validation"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report problems under the environment key the operator has to change.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		if key := field.Tag.Get("env"); key != "" {
			return key
		}
		return field.Name
	})
	return v
}

// Validate checks the configuration and the remaining invocation time.
// All problems are collected and returned together, wrapped in ErrInvalidConfig.
func (c *Config) Validate(remaining time.Duration) error {
	var errs []error

	if remaining < c.MaxRemainingTime {
		errs = append(errs, fmt.Errorf(
			"%w: remaining time %s is smaller than the stop threshold %s; lower %s or raise the function timeout",
			errors.ErrInsufficientTime, remaining, c.MaxRemainingTime, EnvMaxRemainingTimeMS))
	}

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return errors.NewError("validateConfig", errors.ErrInvalidConfig).WithMessage(err.Error())
		}
		for _, fe := range fieldErrs {
			errs = append(errs, describe(fe))
		}
	}

	if c.Bucket != "" {
		if err := validation.ValidateBucketName(c.Bucket); err != nil {
			errs = append(errs, err)
		}
	}
	if err := validation.ValidateFolder(c.Folder); err != nil {
		errs = append(errs, err)
	}
	if err := validation.ValidateStorageClass(c.StorageClass); err != nil {
		errs = append(errs, err)
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.NewError("validateConfig", stderrors.Join(append([]error{errors.ErrInvalidConfig}, errs...)...))
}

func describe(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s must be configured", fe.Field())
	case "contains":
		return fmt.Errorf("%s must contain the wildcard %q", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %q", fe.Field(), fe.Param(), fe.Value())
	default:
		return fmt.Errorf("%s failed %s=%s validation, got %v", fe.Field(), fe.Tag(), fe.Param(), fe.Value())
	}
}
