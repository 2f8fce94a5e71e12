package users

import (
	"fmt"

	"bus-booking/auth"
	apperrors "bus-booking/errors"
	"bus-booking/validation"
)

const mobileTag = "len=10,number"

var rolesTag = fmt.Sprintf("min=1,dive,oneof=%s %s %s", auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin)

var (
	errMissingFields = apperrors.Validation("Missing mandatory fields: First Name, Email, Username, Password, Mobile")
	errEmailFormat   = apperrors.Validation("Invalid email format")
	errMobileNumber  = apperrors.Validation("Invalid mobile number")
	errUnknownRoles  = apperrors.Validation("userType must list known roles: user, admin, superAdmin")
)

func validateSignup(req SignupRequest) error {
	err := validation.Struct(req)
	switch {
	case err == nil:
		return nil
	case validation.Failed(err, "", "required", "notblank"):
		return errMissingFields
	case validation.Failed(err, "email"):
		return errEmailFormat
	case validation.Failed(err, "mobile"):
		return errMobileNumber
	}
	return apperrors.Validation(err.Error())
}

func validateEmail(email string) error {
	if !validation.Var(email, "emailaddr") {
		return errEmailFormat
	}
	return nil
}

func validateMobile(mobile string) error {
	if !validation.Var(mobile, mobileTag) {
		return errMobileNumber
	}
	return nil
}

func validateRoles(roles []string) error {
	if !validation.Var(roles, rolesTag) {
		return errUnknownRoles
	}
	return nil
}
