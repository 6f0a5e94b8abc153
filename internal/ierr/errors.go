package ierr

import "errors"

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrStoreInconsistency = errors.New("store mutation affected no records")
	ErrInternalServer     = errors.New("internal server error")

	ErrLicenseNotFound      = errors.New("license not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrCipherConfigNotFound = errors.New("cipher config not found")

	ErrAlreadyUsed       = errors.New("card already used")
	ErrProtectedResource = errors.New("resource is protected")

	ErrMissingSignature = errors.New("signature headers missing")
	ErrInvalidSignature = errors.New("signature mismatch")

	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// IsNotFound reports whether err is ErrNotFound or one of its entity-specific variants.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrLicenseNotFound) ||
		errors.Is(err, ErrCardNotFound) ||
		errors.Is(err, ErrCategoryNotFound) ||
		errors.Is(err, ErrCipherConfigNotFound)
}
