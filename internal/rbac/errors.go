package rbac

import "errors"

var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidPermission = errors.New("invalid permission")
	ErrEmptyRequirement  = errors.New("composite requirement has no permissions")
)

const (
	errRequirementInvalidPermissionFmt = "requirement: permission %d: %w"
	errSetDecodeFmt                    = "permission set: %w"
)
