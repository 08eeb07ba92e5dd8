package appwrite

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PermissionRead grants read access to role
func PermissionRead(role string) string {
	return fmt.Sprintf("read(%q)", role)
}

// PermissionWrite grants write access to role
func PermissionWrite(role string) string {
	return fmt.Sprintf("write(%q)", role)
}

// RoleAny is every caller, authenticated or not
func RoleAny() string { return "any" }

// RoleLabel is every user carrying label
func RoleLabel(label string) string { return "label:" + label }

// UniqueID returns a new random id in the platform's id alphabet
func UniqueID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
